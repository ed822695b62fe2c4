package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/storegate/internal/flagx"
)

// serverFlags lists the flags parseFlags owns.
var serverFlags = []string{"-a", "-d", "-s", "-l", "-m", "-b", "-g", "-e"}

// parseFlags overlays Config with command-line flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN, or "memory"
//	-s string   token signing secret
//	-l string   log level
//	-m string   SMTP host
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// os.Args is filtered first so flags owned by other components do not trip
// the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, or "memory://"
//	-g string   payment gateway base URL
//	-k string   payment gateway key id
//	-s string   payment gateway key secret
//	-y string   order currency
//	-t int      gateway timeout, seconds
//	-q int      store timeout, seconds
//	-j string   principal token secret shared with the login provider
//	-m string   admin token
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket for verification evidence
//	-r string   S3 region
//	-e string   S3 base endpoint
//	-f string   cron spec for the users backfill job
//	-l string   log level
//
// os.Args is filtered to these flags first (flagx.FilterArgs) so the -c
// config flag and anything else on the command line does not collide.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{
		"-a", "-d", "-g", "-k", "-s", "-y", "-t", "-q", "-j", "-m",
		"-u", "-p", "-b", "-r", "-e", "-f", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.GatewayBaseURL, "g", config.GatewayBaseURL, "payment gateway base URL")
	fs.StringVar(&config.GatewayKeyID, "k", config.GatewayKeyID, "payment gateway key id")
	fs.StringVar(&config.GatewayKeySecret, "s", config.GatewayKeySecret, "payment gateway key secret")
	fs.StringVar(&config.Currency, "y", config.Currency, "order currency")

	gatewayTimeout := fs.Int("t", int(config.GatewayTimeout.Seconds()), "gateway timeout (in seconds)")
	storeTimeout := fs.Int("q", int(config.StoreTimeout.Seconds()), "store timeout (in seconds)")

	fs.StringVar(&config.AuthSecret, "j", config.AuthSecret, "principal token secret")
	fs.StringVar(&config.AdminToken, "m", config.AdminToken, "admin token")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 evidence bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.BackfillSchedule, "f", config.BackfillSchedule, "users backfill cron spec")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.GatewayTimeout = time.Duration(*gatewayTimeout) * time.Second
	config.StoreTimeout = time.Duration(*storeTimeout) * time.Second
}

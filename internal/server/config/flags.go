package config

import (
	"flag"
	"os"
	"time"

	"github.com/reactivities/identity/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key (>= 64 bytes)
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-v int      email confirmation token validity, minutes
//	-o string   client origin used in verification links
//	-m string   mail driver: log, sendgrid, s3
//	-k string   SendGrid API key
//	-dev        development mode (use -dev=false to disable)
//	-bypass     username allowed to log in without email confirmation (development only)
//	-reissue    issue a new refresh token on rotation (use -reissue=false to disable)
//	-u, -p, -b, -g, -e   S3 user, password, bucket, region, endpoint for the s3 mail driver
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so the -c config flag does not trip the flag set.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"a", "d", "s", "t", "r", "v", "o", "m", "k", "bypass",
		"u", "p", "b", "g", "e",
	}, "dev", "reissue")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")
	emailTokenValidityDuration := fs.Int("v", int(config.EmailTokenValidityDuration.Minutes()), "email_token_validity_duration (in minutes)")

	fs.StringVar(&config.ClientOrigin, "o", config.ClientOrigin, "client origin")
	fs.StringVar(&config.MailDriver, "m", config.MailDriver, "mail driver (log, sendgrid, s3)")
	fs.StringVar(&config.SendGridKey, "k", config.SendGridKey, "SendGrid API key")
	fs.BoolVar(&config.Development, "dev", config.Development, "development mode")
	fs.StringVar(&config.ConfirmationBypassUser, "bypass", config.ConfirmationBypassUser, "username allowed to log in unconfirmed (development only)")
	fs.BoolVar(&config.ReissueOnRotate, "reissue", config.ReissueOnRotate, "issue a new refresh token on rotation")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 outbox bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Durations given only in a config file may be finer than a minute, so
	// they are overridden only by flags that were actually passed.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		case "v":
			config.EmailTokenValidityDuration = time.Duration(*emailTokenValidityDuration) * time.Minute
		}
	})
}

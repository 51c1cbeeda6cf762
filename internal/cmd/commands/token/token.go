package token

import (
	"flag"
	"fmt"
	"time"

	"docclient/internal/auth"
	"docclient/internal/cmd/base"
)

type Command struct {
	*base.Command

	// Now defaults to time.Now.
	Now func() time.Time

	flagSecret  string
	flagSubject string
	flagTTL     time.Duration
	flagVerify  string
}

func (c *Command) Synopsis() string {
	return "Mint or verify a bearer token for the document API"
}

func (c *Command) Help() string {
	return `Usage: docclient token [options]

  Signs an HS256 token with the server's JWT secret and prints it, ready for
  DOCAPI_TOKEN. With -verify, checks a token instead and prints its subject
  and expiry.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("token", flag.ContinueOnError))
	f.StringVar(&c.flagSecret, "secret", c.Config.Deploy.JWTSecret,
		"Signing secret. Defaults to JWT_SECRET_KEY.")
	f.StringVar(&c.flagSubject, "subject", "",
		"(Required to mint) Subject the token is issued to.")
	f.DurationVar(&c.flagTTL, "ttl", time.Hour,
		"Lifetime of the token.")
	f.StringVar(&c.flagVerify, "verify", "",
		"Verify this token instead of minting one.")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagVerify != "" {
		claims, err := auth.ParseToken(c.flagSecret, c.flagVerify)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		exp := "never"
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.UTC().Format(time.RFC3339)
		}
		c.UI.Output(fmt.Sprintf("subject=%s expires=%s", claims.Subject, exp))
		return 0
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	tok, err := auth.MintToken(c.flagSecret, c.flagSubject, c.flagTTL, now())
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output(tok)
	return 0
}

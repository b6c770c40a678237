package probe

import (
	"context"

	"github.com/viant/authgate"
)

type Options struct {
	ConfigURL   string `short:"c" long:"config" description:"client options YAML URL"`
	URL         string `short:"u" long:"url" description:"protected resource URL" required:"true"`
	Method      string `short:"X" long:"method" description:"HTTP method" default:"GET"`
	Data        string `short:"d" long:"data" description:"JSON request body"`
	Requests    int    `short:"N" long:"requests" description:"number of requests" default:"1"`
	Concurrency int    `short:"n" long:"concurrency" description:"max requests in flight" default:"1"`
	Access      string `long:"access" description:"access credential to seed"`
	Refresh     string `long:"refresh" description:"refresh credential to seed"`
	Email       string `short:"e" long:"email" description:"login email"`
	Password    string `short:"p" long:"password" description:"login password"`
	authgate.ClientOptions
}

// clientOptions merges command line overrides into the options loaded from ConfigURL.
func (o *Options) clientOptions(ctx context.Context) (*authgate.ClientOptions, error) {
	if o.ConfigURL == "" {
		ret := o.ClientOptions
		return &ret, nil
	}
	ret, err := authgate.LoadClientOptions(ctx, o.ConfigURL)
	if err != nil {
		return nil, err
	}
	if o.LoginURL != "" {
		ret.LoginURL = o.LoginURL
	}
	if o.RefreshURL != "" {
		ret.RefreshURL = o.RefreshURL
	}
	if o.Store.Type != "" {
		ret.Store = o.Store
	}
	if o.RefreshTimeoutMs > 0 {
		ret.RefreshTimeoutMs = o.RefreshTimeoutMs
	}
	if o.WaitTimeoutMs > 0 {
		ret.WaitTimeoutMs = o.WaitTimeoutMs
	}
	if o.ProactiveRefresh {
		ret.ProactiveRefresh = true
		if o.ExpiryLeewayMs > 0 {
			ret.ExpiryLeewayMs = o.ExpiryLeewayMs
		}
	}
	return ret, nil
}

func (o *Options) Init() {
	if o.Requests < 1 {
		o.Requests = 1
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
}

package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config is populated from the environment. The gateway key pair and the
// token signing secret are operational secrets injected at deploy time;
// they have no defaults on purpose.
type Config struct {
	ServeRESTAddress string `envconfig:"serve_rest_address" default:":8000"`

	DatabaseDSN   string `envconfig:"database_dsn" required:"true"`
	MigrationsDir string `envconfig:"migrations_dir" default:"data/mysql/migrations"`

	RedisAddress string `envconfig:"redis_address" default:"localhost:6379"`

	RazorpayBaseURL   string `envconfig:"razorpay_base_url" default:"https://api.razorpay.com"`
	RazorpayKeyID     string `envconfig:"razorpay_key_id" required:"true"`
	RazorpayKeySecret string `envconfig:"razorpay_key_secret" required:"true"`

	AuthSecret string `envconfig:"auth_secret" required:"true"`

	Currency string `envconfig:"currency" default:"INR"`
}

func Parse(prefix string) (*Config, error) {
	c := new(Config)
	if err := envconfig.Process(prefix, c); err != nil {
		return nil, errors.Wrap(err, "parse configuration")
	}
	return c, nil
}

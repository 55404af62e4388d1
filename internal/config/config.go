package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	ListenPort int `toml:"port"`

	Backend struct {
		// Base URL of the storefront API, e.g. http://localhost:4000
		URL string `toml:"url"`
		// Transport timeout in seconds
		Timeout int `toml:"timeout"`
	} `toml:"backend"`

	Session struct {
		// Session lifetime in seconds. The backend token cookie lives
		// exactly this long.
		Lifetime int `toml:"lifetime"`

		Cookie struct {
			Secret string `toml:"secret"`
			Name   string `toml:"name"`
			Secure bool   `toml:"secure"`
		} `toml:"cookie"`
	} `toml:"session"`

	Locale struct {
		CookieName  string `toml:"cookie_name"`
		DefaultLang string `toml:"default_lang"`
	} `toml:"locale"`
}

// TOML marshaller doesn't override fields that weren't set in the TOML, so we can apply defaults here
func (c *Config) setDefaults() {
	c.ListenPort = 8080

	c.Backend.Timeout = 15

	c.Session.Lifetime = 30 * 24 * 60 * 60 // 30 days
	c.Session.Cookie.Name = "shop"
	c.Session.Cookie.Secure = true

	c.Locale.CookieName = "language"
	c.Locale.DefaultLang = "en"
}

func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.Session.Lifetime) * time.Second
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.Timeout) * time.Second
}

func LoadFromTomlFileAndValidate(filepath string) (*Config, error) {
	file, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	conf := new(Config)
	conf.setDefaults()

	err = toml.Unmarshal(file, conf)
	if err != nil {
		return nil, err
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("please supply backend.url")
	}

	if len(c.Session.Cookie.Secret) == 0 {
		log.Printf("No cookie secret was provided, randomly generating one...")
		buff := make([]byte, 16)
		_, err := rand.Read(buff)
		if err != nil {
			return fmt.Errorf("failed to generate random cookie secret: %w", err)
		}

		c.Session.Cookie.Secret = base64.RawStdEncoding.EncodeToString(buff)
		log.Printf("Note: because your cookie secret was randomly generated, if the server restarts, or you are load balancing across multiple instances, users will get logged out.")

	} else if len(c.Session.Cookie.Secret) < 16 {
		return fmt.Errorf("your session.cookie.secret was less than 16 characters, please supply a long, random secret")
	}

	if c.Session.Lifetime <= 0 {
		return fmt.Errorf("session.lifetime must be a positive number of seconds")
	}

	return nil
}

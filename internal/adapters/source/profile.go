package source

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Profile holds the connection details of one external sensor database.
type Profile struct {
	Name     string `yaml:"name"`
	DBName   string `yaml:"dbname"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	SSLMode  string `yaml:"sslmode"`
}

// ApplyDefaults fills the name from the 1-based position and the standard port.
func (p *Profile) ApplyDefaults(position int) {
	if p.Name == "" {
		p.Name = fmt.Sprintf("DB_%d", position)
	}
	if p.Port == 0 {
		p.Port = 5432
	}
	if p.SSLMode == "" {
		p.SSLMode = "disable"
	}
}

func (p *Profile) Validate() error {
	if p.Host == "" {
		return errors.New("host is required")
	}
	if p.DBName == "" {
		return errors.New("dbname is required")
	}
	if p.User == "" {
		return errors.New("user is required")
	}
	if p.Port <= 0 || p.Port > 65535 {
		return fmt.Errorf("port %d out of range", p.Port)
	}
	return nil
}

// ConnString renders the profile as a lib/pq URL.
func (p Profile) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else {
		u.User = url.User(p.User)
	}
	return u.String()
}

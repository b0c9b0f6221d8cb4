package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	Env            string
	LogLevel       string
	WordsDir       string
	AllowedOrigins []string
	DatabaseURL    string

	ReapInterval time.Duration
	PublicIdle   time.Duration
	PrivateIdle  time.Duration

	MsgRate  float64
	MsgBurst int
}

func (c Config) Development() bool { return c.Env != "production" }

// Load reads an optional .env file, then the process environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := Config{
		Addr:        getenv("SCRIBBLE_ADDR", ":8080"),
		Env:         getenv("SCRIBBLE_ENV", "development"),
		LogLevel:    getenv("SCRIBBLE_LOG_LEVEL", "info"),
		WordsDir:    getenv("SCRIBBLE_WORDS_DIR", "words"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	for _, o := range strings.Split(os.Getenv("SCRIBBLE_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, o)
		}
	}

	var err error
	if c.ReapInterval, err = duration("SCRIBBLE_REAP_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if c.PublicIdle, err = duration("SCRIBBLE_PUBLIC_IDLE", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if c.PrivateIdle, err = duration("SCRIBBLE_PRIVATE_IDLE", 60*time.Minute); err != nil {
		return Config{}, err
	}
	if c.MsgRate, err = float("SCRIBBLE_MSG_RATE", 60); err != nil {
		return Config{}, err
	}
	if c.MsgBurst, err = integer("SCRIBBLE_MSG_BURST", 120); err != nil {
		return Config{}, err
	}
	return c, nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func integer(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid positive integer %q", key, v)
	}
	return n, nil
}

func float(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s: invalid positive number %q", key, v)
	}
	return f, nil
}

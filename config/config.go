package config

import (
	"os"
	"strconv"

	"golang.org/x/time/rate"
)

// Store and worker tuning. Read from ARENA_* variables at startup and again
// after an .env file is loaded.
var (
	MaxOpenConns int
	MaxIdleConns int
	PopRate      rate.Limit
	PopBurstRate int
)

func init() { loadTuning() }

func loadTuning() {
	MaxOpenConns = getEnvInt("ARENA_MAX_OPEN_CONNS", 20)
	MaxIdleConns = getEnvInt("ARENA_MAX_IDLE_CONNS", 20)
	PopRate = rate.Limit(getEnvFloat("ARENA_POP_RPS", 40))
	PopBurstRate = getEnvInt("ARENA_POP_BURST", 10)
}

// lookup hands a set variable to parse. Unset or unparsable values leave the
// default in place.
func lookup(name string, parse func(string) error) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		_ = parse(v)
	}
}

func getEnvInt(name string, def int) int {
	lookup(name, func(v string) error {
		n, err := strconv.ParseInt(v, 10, 32)
		if err == nil {
			def = int(n)
		}
		return err
	})
	return def
}

func getEnvFloat(name string, def float64) float64 {
	lookup(name, func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			def = f
		}
		return err
	})
	return def
}

func getEnvBool(name string, def bool) bool {
	lookup(name, func(v string) error {
		b, err := strconv.ParseBool(v)
		if err == nil {
			def = b
		}
		return err
	})
	return def
}

// Command opstoken mints token pairs for the dispatch console API.
// There is no password login; operators get their first pair from this
// tool and rotate it through POST /auth/refresh.
//
// The signing secret comes from JWT_SECRET (or a local .env file), so
// run it wherever the API's environment is available.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"careline/internal/auth"
	"careline/internal/config"
)

func main() {
	user := flag.String("user", "", "operator user id")
	agency := flag.String("agency", "", "staffing agency id the tokens act for")
	role := flag.String("role", auth.RoleDispatcher, "dispatcher or admin")
	accessTTL := flag.Duration("access-ttl", 0, "access token lifetime; overrides JWT_ACCESS_TTL")
	refreshTTL := flag.Duration("refresh-ttl", 0, "refresh token lifetime; overrides JWT_REFRESH_TTL")
	flag.Parse()

	if *user == "" || *agency == "" {
		fmt.Fprintln(os.Stderr, "usage: opstoken -user <id> -agency <id> [-role dispatcher|admin]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Best effort; deployments provide real env.
	_ = godotenv.Load()

	cfg := config.AuthConfig{
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		JWTAudience:     strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
		AccessTokenTTL:  ttlFor("JWT_ACCESS_TTL", *accessTTL),
		RefreshTokenTTL: ttlFor("JWT_REFRESH_TTL", *refreshTTL),
	}

	m, err := auth.NewManager(cfg)
	if err != nil {
		fatalf("auth init failed: %v", err)
	}

	pair, err := m.IssuePair(time.Now(), *user, *agency, *role)
	if err != nil {
		fatalf("token issue failed: %v", err)
	}

	fmt.Printf("access_token=%s\n", pair.AccessToken)
	fmt.Printf("refresh_token=%s\n", pair.RefreshToken)
}

// ttlFor prefers the flag, then the env var. Zero lets the manager's
// defaults apply.
func ttlFor(key string, flagVal time.Duration) time.Duration {
	if flagVal > 0 {
		return flagVal
	}
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fatalf("%s is not a duration: %q", key, v)
	}
	return 0
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

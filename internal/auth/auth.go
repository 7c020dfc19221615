package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"gameshelf/internal/common"
)

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Settings is the immutable credential set loaded at startup.
type Settings struct {
	users []User
}

// FromUsers normalizes the user list: whitespace trimmed, entries with an
// empty username or password dropped, duplicate usernames last-wins.
func FromUsers(users []User) *Settings {
	seen := make(map[string]int)
	out := make([]User, 0, len(users))

	for _, u := range users {
		username := strings.TrimSpace(u.Username)
		password := strings.TrimSpace(u.Password)
		if username == "" || password == "" {
			continue
		}

		if idx, ok := seen[username]; ok {
			out[idx] = User{Username: username, Password: password}

			continue
		}

		seen[username] = len(out)
		out = append(out, User{Username: username, Password: password})
	}

	return &Settings{users: out}
}

func (s *Settings) Enabled() bool {
	return len(s.users) > 0
}

func (s *Settings) UserCount() int {
	return len(s.users)
}

// Authorized compares the supplied credentials against every configured
// user with constant-time equality. Every user is always checked so the
// timing does not reveal which usernames exist.
func (s *Settings) Authorized(username, password string) bool {
	ok := false
	for i := range s.users {
		nameMatch := subtle.ConstantTimeCompare([]byte(s.users[i].Username), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(s.users[i].Password), []byte(password)) == 1
		if nameMatch && passMatch {
			ok = true
		}
	}

	return ok
}

// ParseBasicAuth parses an Authorization header value. Only the strict
// "Basic <base64>" form is accepted; anything else is a mismatch, never an
// error worth surfacing to the client beyond the 401.
func ParseBasicAuth(header string) (username, password string, ok bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Basic") {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return "", "", false
	}

	credentials := string(decoded)
	idx := strings.IndexByte(credentials, ':')
	if idx < 0 {
		return "", "", false
	}

	return credentials[:idx], credentials[idx+1:], true
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// LoadUsersFile reads the YAML credentials source. A file that yields no
// valid user is an error: a private server with an empty user set must not
// start.
func LoadUsersFile(fs afero.Fs, fileName string) ([]User, error) {
	data, err := afero.ReadFile(fs, fileName)
	if err != nil {
		return nil, fmt.Errorf("cannot read users file %s: %w", fileName, err)
	}

	var parsed usersFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse users file %s: %w", fileName, err)
	}

	settings := FromUsers(parsed.Users)
	if !settings.Enabled() {
		return nil, fmt.Errorf("users file %s: %w", fileName, common.ErrNoUsersConfiguredError)
	}

	return settings.users, nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/sweater-ventures/roster/model"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	firstNames = []string{
		"Ahmet", "Mehmet", "Mustafa", "Ali", "Hüseyin", "Hasan", "İbrahim", "Murat",
		"Emre", "Burak", "Oğuz", "Çağrı", "Kerem", "Yusuf", "Serkan", "Volkan",
		"Ayşe", "Fatma", "Emine", "Hatice", "Zeynep", "Elif", "Şule", "Gül",
		"Özlem", "Merve", "Büşra", "Esra", "Derya", "Ebru", "Sibel", "Ilgın",
	}
	lastNames = []string{
		"Yılmaz", "Kaya", "Demir", "Şahin", "Çelik", "Yıldız", "Yıldırım", "Öztürk",
		"Aydın", "Özdemir", "Arslan", "Doğan", "Kılıç", "Aslan", "Çetin", "Kara",
		"Koç", "Kurt", "Özkan", "Şimşek", "Polat", "Erdoğan", "Güneş", "Aksoy",
	}
	emailDomains = []string{"gmail.com", "hotmail.com", "yahoo.com", "yandex.com.tr"}
)

const (
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	activeRatio      = 0.8
	seedPasswordLen  = 8
)

// UserGenerator produces deterministic fake users for a given seed.
type UserGenerator struct {
	rnd *rand.Rand
	now time.Time
}

func NewUserGenerator(seed uint64, now time.Time) *UserGenerator {
	return &UserGenerator{rnd: rand.New(rand.NewPCG(seed, seed)), now: now}
}

// asciiFold maps a name to the lowercase ASCII form used in emails.
func asciiFold(s string) string {
	s = strings.NewReplacer("ı", "i", "İ", "I").Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func (g *UserGenerator) pick(options []string) string {
	return options[g.rnd.IntN(len(options))]
}

func (g *UserGenerator) between(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

func (g *UserGenerator) password() string {
	b := make([]byte, seedPasswordLen)
	for i := range b {
		b[i] = passwordAlphabet[g.rnd.IntN(len(passwordAlphabet))]
	}
	return string(b)
}

// Next returns the next user body and its timestamps. createdAt falls in the
// past year and updatedAt in the last day, never before createdAt.
func (g *UserGenerator) Next() (Record, time.Time, time.Time) {
	first, last := g.pick(firstNames), g.pick(lastNames)
	separator := []string{".", "_", ""}[g.rnd.IntN(3)]
	email := fmt.Sprintf("%s%s%s%d@%s", asciiFold(first), separator, asciiFold(last), g.rnd.IntN(100), g.pick(emailDomains))

	body := Record{
		"name":     first + " " + last,
		"email":    email,
		"password": g.password(),
		"role":     string(model.Roles[g.rnd.IntN(len(model.Roles))]),
		"active":   g.rnd.Float64() < activeRatio,
		"location": map[string]any{
			"latitude":  g.between(39.7, 40.1),
			"longitude": g.between(32.5, 33.0),
		},
	}

	createdAt := g.now.Add(-time.Duration(g.rnd.Int64N(int64(365 * 24 * time.Hour))))
	updatedAt := g.now.Add(-time.Duration(g.rnd.Int64N(int64(24 * time.Hour))))
	if updatedAt.Before(createdAt) {
		updatedAt = createdAt
	}
	return body, createdAt, updatedAt
}

// SeedUsers fills an empty users store with count generated users. It does
// nothing if any user exists. Passwords are hashed at bcrypt.MinCost.
func SeedUsers(ctx context.Context, roster *Application, count int, seed uint64) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	existing, err := CountRecords(ctx, roster, UsersResource)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		log(ctx).Debug("Skipping seed, users exist", slog.Int64("count", existing))
		return 0, nil
	}

	schema := UserSchema{Cost: bcrypt.MinCost}
	gen := NewUserGenerator(seed, time.Now())
	for i := range count {
		body, createdAt, updatedAt := gen.Next()
		if _, err := AddRecord(ctx, roster, schema, body, createdAt, updatedAt); err != nil {
			return i, fmt.Errorf("seeding user %d: %w", i, err)
		}
	}
	roster.Collections.Flush(UsersResource)
	log(ctx).Info("Seeded users", slog.Int("count", count))
	return count, nil
}

package seeder

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/dbcourse/app1/internal/schema"
)

const (
	minPhone   = 10_000_000_000
	phoneSpan  = 90_000_000_000
	maxRedraws = 1000
)

var cardTypes = []string{"visa", "mastercard"}

// DataGenerator produces fake records. Keys it hands out are unique for the
// life of the generator; collisions with rows already stored are left to the
// database to reject.
type DataGenerator struct {
	faker *gofakeit.Faker
	now   func() time.Time

	phones map[int64]bool
	cards  map[int64]bool
}

// NewDataGenerator returns a generator seeded with seed; 0 picks a random seed.
func NewDataGenerator(seed uint64) *DataGenerator {
	return &DataGenerator{
		faker:  gofakeit.New(seed),
		now:    time.Now,
		phones: make(map[int64]bool),
		cards:  make(map[int64]bool),
	}
}

func (g *DataGenerator) UserAccount() (schema.UserAccount, error) {
	phone, err := g.unique(g.phones, func() (int64, error) {
		return minPhone + int64(g.faker.Uint64()%phoneSpan), nil
	})
	if err != nil {
		return schema.UserAccount{}, fmt.Errorf("phone: %w", err)
	}
	return schema.UserAccount{
		Phone:     phone,
		FirstName: g.faker.FirstName(),
		LastName:  g.faker.LastName(),
	}, nil
}

func (g *DataGenerator) UserAccounts(n int) ([]schema.UserAccount, error) {
	out := make([]schema.UserAccount, 0, n)
	for i := 0; i < n; i++ {
		a, err := g.UserAccount()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CreditCard returns a card owned by phone that expires within the next 30
// days.
func (g *DataGenerator) CreditCard(phone int64) (schema.CreditCard, error) {
	number, err := g.unique(g.cards, func() (int64, error) {
		raw := g.faker.CreditCardNumber(&gofakeit.CreditCardOptions{Types: cardTypes})
		return strconv.ParseInt(raw, 10, 64)
	})
	if err != nil {
		return schema.CreditCard{}, fmt.Errorf("card number: %w", err)
	}

	today := g.now().UTC().Truncate(24 * time.Hour)
	exp := g.faker.DateRange(today.AddDate(0, 0, 1), today.AddDate(0, 0, 30))

	return schema.CreditCard{
		CardNumber: number,
		ExpDate:    time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, time.UTC),
		CVC:        g.faker.IntRange(1, 999),
		Zipcode:    g.faker.IntRange(10000, 99999),
		Phone:      phone,
	}, nil
}

// CreditCards draws n cards, each owned by an account picked at random from
// owners.
func (g *DataGenerator) CreditCards(n int, owners []int64) ([]schema.CreditCard, error) {
	if n > 0 && len(owners) == 0 {
		return nil, fmt.Errorf("no user accounts to own %d credit cards", n)
	}
	out := make([]schema.CreditCard, 0, n)
	for i := 0; i < n; i++ {
		c, err := g.CreditCard(owners[g.faker.IntRange(0, len(owners)-1)])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// PurchaseKey is the primary key of a purchase.
type PurchaseKey struct {
	Phone   int64
	AddOnID int
}

// Purchases draws n distinct (account, add-on) pairs among accounts that own
// at least one card and pays each with one of the buyer's cards. Pairs in
// taken are never drawn.
func (g *DataGenerator) Purchases(n int, cardsByOwner map[int64][]int64, addOns []int, taken map[PurchaseKey]bool) ([]schema.Purchase, error) {
	if n == 0 {
		return nil, nil
	}

	owners := make([]int64, 0, len(cardsByOwner))
	for phone, cards := range cardsByOwner {
		if len(cards) > 0 {
			owners = append(owners, phone)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })

	candidates := make([]PurchaseKey, 0, len(owners)*len(addOns))
	for _, phone := range owners {
		for _, id := range addOns {
			key := PurchaseKey{Phone: phone, AddOnID: id}
			if !taken[key] {
				candidates = append(candidates, key)
			}
		}
	}
	if n > len(candidates) {
		return nil, fmt.Errorf("cannot draw %d purchases: only %d unpurchased account/add-on pairs have a card to pay with", n, len(candidates))
	}

	for i := len(candidates) - 1; i > 0; i-- {
		j := g.faker.IntRange(0, i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	out := make([]schema.Purchase, 0, n)
	for _, c := range candidates[:n] {
		cards := cardsByOwner[c.Phone]
		out = append(out, schema.Purchase{
			Phone:      c.Phone,
			AddOnID:    c.AddOnID,
			CardNumber: cards[g.faker.IntRange(0, len(cards)-1)],
		})
	}
	return out, nil
}

func (g *DataGenerator) unique(seen map[int64]bool, draw func() (int64, error)) (int64, error) {
	for i := 0; i < maxRedraws; i++ {
		v, err := draw()
		if err != nil || seen[v] {
			continue
		}
		seen[v] = true
		return v, nil
	}
	return 0, fmt.Errorf("no unused value after %d draws", maxRedraws)
}

// Package generator produces synthetic MoMo SMS backup corpora covering every
// message layout the extractors understand.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/vanshika/momoledger/internal/domain"
)

const bodyDateLayout = "2006-01-02 15:04:05"

// Message is one generated <sms> element.
type Message struct {
	Body       string
	DateMillis *int64
	// Broken elements are written with deliberately invalid markup.
	Broken bool
	// Type is the classification the body was written for.
	Type domain.TransactionType
}

type contact struct {
	name  string
	phone string
}

// Generator produces synthetic SMS messages.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	contacts  []contact
	merchants []contact
	balance   int64
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumMessages <= 0 {
		cfg.NumMessages = defaults.NumMessages
	}
	if cfg.NumContacts <= 0 {
		cfg.NumContacts = defaults.NumContacts
	}
	cfg.BrokenChance = clampProbability(cfg.BrokenChance)
	cfg.MissingDateChance = clampProbability(cfg.MissingDateChance)
	cfg.MaskedSenderChance = clampProbability(cfg.MaskedSenderChance)
	if cfg.Start.IsZero() {
		cfg.Start = defaults.Start
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	g := &Generator{
		cfg:     cfg,
		rand:    rand.New(rand.NewSource(cfg.Seed)),
		balance: 50000,
	}
	g.contacts = g.newContacts(cfg.NumContacts, g.randomPhone)
	g.merchants = g.newContacts(max(cfg.NumContacts/4, 1), g.randomMerchantCode)
	return g
}

// Generate synthesises the configured number of messages in chronological
// order. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) ([]Message, error) {
	messages := make([]Message, 0, g.cfg.NumMessages)
	at := g.cfg.Start

	for i := 0; i < g.cfg.NumMessages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at = at.Add(time.Duration(5+g.rand.Intn(600)) * time.Minute)

		msg := g.randomMessage(at)
		if g.rand.Float64() >= g.cfg.MissingDateChance {
			// the phone stamps the SMS a few seconds after the ledger time
			millis := at.Add(time.Duration(g.rand.Intn(30)) * time.Second).UnixMilli()
			msg.DateMillis = &millis
		}
		msg.Broken = g.rand.Float64() < g.cfg.BrokenChance
		messages = append(messages, msg)
	}
	return messages, nil
}

func (g *Generator) randomMessage(at time.Time) Message {
	switch g.rand.Intn(6) {
	case 0, 1:
		return g.deposit(at)
	case 2:
		return g.payment(at)
	case 3:
		return g.transfer(at)
	case 4:
		return g.withdrawal(at)
	default:
		return g.airtime()
	}
}

func (g *Generator) deposit(at time.Time) Message {
	amount := g.randomAmount(500, 80000)
	g.balance += amount
	sender := g.pick(g.contacts)
	body := fmt.Sprintf("You have received %s RWF from %s (%s) on your mobile money account at %s. Message from sender: . Your new balance:%s RWF. Financial Transaction Id: %s.",
		formatAmount(amount), sender.name, g.senderIdentifier(sender.phone), at.Format(bodyDateLayout), formatAmount(g.balance), g.randomReference())
	return Message{Body: body, Type: domain.TypeDeposit}
}

func (g *Generator) payment(at time.Time) Message {
	amount := g.spend(100, 15000)
	merchant := g.pick(g.merchants)
	receiver := fmt.Sprintf("%s %s", merchant.name, merchant.phone)
	if g.rand.Intn(2) == 0 {
		receiver = fmt.Sprintf("%s (%s)", merchant.name, merchant.phone)
	}
	body := fmt.Sprintf("TxId: %s. Your payment of %s RWF to %s has been completed at %s. Your new balance: %s RWF. Fee was 0 RWF.",
		g.randomReference(), formatAmount(amount), receiver, at.Format(bodyDateLayout), formatAmount(g.balance))
	return Message{Body: body, Type: domain.TypePayment}
}

func (g *Generator) transfer(at time.Time) Message {
	amount := g.spend(1000, 40000)
	sender := g.pick(g.contacts)
	receiver := g.pick(g.contacts)
	body := fmt.Sprintf("You have transferred %s RWF from %s (%s) to %s (%s) at %s. Fee was: 100 RWF. New balance: %s RWF. Financial Transaction Id: %s.",
		formatAmount(amount), sender.name, g.senderIdentifier(sender.phone), receiver.name, receiver.phone, at.Format(bodyDateLayout), formatAmount(g.balance), g.randomReference())
	return Message{Body: body, Type: domain.TypeTransfer}
}

func (g *Generator) withdrawal(at time.Time) Message {
	amount := g.spend(2000, 30000)
	body := fmt.Sprintf("Cash withdrawal of %s RWF completed via agent at %s. Your new balance: %s RWF. Fee paid: 350 RWF. Financial Transaction Id: %s.",
		formatAmount(amount), at.Format(bodyDateLayout), formatAmount(g.balance), g.randomReference())
	return Message{Body: body, Type: domain.TypeWithdrawal}
}

// airtime bodies carry no explicit date, so their DateTime comes from the
// element's date attribute.
func (g *Generator) airtime() Message {
	amount := g.spend(100, 5000)
	body := fmt.Sprintf("*162*TxId:%s*S*Your airtime top up of %s RWF has been completed. Fee was 0 RWF. Your new balance: %s RWF .",
		g.randomReference(), formatAmount(amount), formatAmount(g.balance))
	return Message{Body: body, Type: domain.TypeOther}
}

func (g *Generator) spend(lo, hi int64) int64 {
	amount := g.randomAmount(lo, hi)
	if amount > g.balance {
		amount = g.balance
	}
	g.balance -= amount
	return amount
}

// senderIdentifier masks all but the last three digits for a share of senders,
// the way the operator hides counterpart numbers.
func (g *Generator) senderIdentifier(phone string) string {
	if g.rand.Float64() >= g.cfg.MaskedSenderChance || len(phone) <= 3 {
		return phone
	}
	return strings.Repeat("*", len(phone)-3) + phone[len(phone)-3:]
}

func (g *Generator) newContacts(n int, phone func() string) []contact {
	out := make([]contact, n)
	for i := range out {
		out[i] = contact{name: g.randomFullName(), phone: phone()}
	}
	return out
}

func (g *Generator) pick(pool []contact) contact {
	return pool[g.rand.Intn(len(pool))]
}

func (g *Generator) randomAmount(lo, hi int64) int64 {
	amount := lo + g.rand.Int63n(hi-lo+1)
	return amount - amount%50
}

func (g *Generator) randomFullName() string {
	return fmt.Sprintf("%s %s", firstNames[g.rand.Intn(len(firstNames))], lastNames[g.rand.Intn(len(lastNames))])
}

func (g *Generator) randomPhone() string {
	return fmt.Sprintf("2507%d%07d", 2+g.rand.Intn(8), g.rand.Intn(10000000))
}

func (g *Generator) randomMerchantCode() string {
	return fmt.Sprintf("%05d", 10000+g.rand.Intn(90000))
}

func (g *Generator) randomReference() string {
	return fmt.Sprintf("%011d", 10000000000+g.rand.Int63n(89999999999))
}

// formatAmount renders an integer amount with comma thousands separators.
func formatAmount(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

var (
	firstNames = []string{"Jane", "John", "Alex", "Aline", "Eric", "Grace", "Samuel", "Diane", "Claude", "Esther", "Patrick", "Ange", "Olivier", "Linda", "Robert"}
	lastNames  = []string{"Smith", "Uwase", "Mugisha", "Niyonzima", "Carter", "Ingabire", "Habimana", "Mukamana", "Nshimiyimana", "Keza", "Doe", "Mensah"}
)

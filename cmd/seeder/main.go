// Seeder populates a sitebot store with demo tenants so the pipeline
// and sweeps have something to chew on during development.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/storage/badger"
)

var dbPath = flag.String("db", "data/store", "path to the knowledge base database directory")

type seedTenant struct {
	owner       string
	email       string
	bot         string
	url         string
	maxPages    int
	auto        bool
	frequency   core.ScrapeFrequency
	lastScraped time.Duration // how long ago; 0 means never scraped
}

var tenants = []seedTenant{
	{
		owner: "Ada", email: "ada@example.com",
		bot: "Acme Support", url: "https://acme.example.com",
		maxPages: 100, auto: true, frequency: core.FrequencyDaily,
		lastScraped: 30 * time.Hour,
	},
	{
		owner: "Grace", email: "grace@example.com",
		bot: "Widgets FAQ", url: "https://widgets.example.com",
		maxPages: 50, auto: true, frequency: core.FrequencyWeekly,
		lastScraped: 20 * time.Hour,
	},
	{
		owner: "Linus", email: "linus@example.com",
		bot: "Docs Helper", url: "https://docs.example.com",
		maxPages: 250, auto: true, frequency: core.FrequencyMonthly,
	},
	{
		owner: "Mary", email: "mary@example.com",
		bot: "Hand-run Bot", url: "https://manual.example.com",
		maxPages: 25, auto: false, frequency: core.FrequencyManual,
		lastScraped: 400 * time.Hour,
	},
}

func main() {
	flag.Parse()

	repos, err := badger.NewRepositories(*dbPath, false)
	if err != nil {
		panic(err)
	}
	defer repos.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	for _, tenant := range tenants {
		users, err := repos.Users.AddUsers(ctx, &core.User{
			Email: tenant.email,
			Name:  tenant.owner,
		})
		if err != nil {
			panic(err)
		}

		bot := &core.Chatbot{
			OwnerId:      users[0].Id,
			Name:         tenant.bot,
			WebsiteURL:   tenant.url,
			MaxPages:     tenant.maxPages,
			AutoRescrape: tenant.auto,
			Frequency:    tenant.frequency,
		}
		if tenant.lastScraped > 0 {
			bot.LastScrapedAt = now.Add(-tenant.lastScraped)
		}
		bots, err := repos.Chatbots.AddChatbots(ctx, bot)
		if err != nil {
			panic(err)
		}

		fmt.Printf("seeded chatbot %d (%s) for %s\n", bots[0].Id, tenant.bot, tenant.owner)
	}

	// One deletion request already past its date, so the deletion sweep
	// has work on the first pass.
	users, err := repos.Users.AddUsers(ctx, &core.User{
		Email: "leaving@example.com",
		Name:  "Leaving User",
	})
	if err != nil {
		panic(err)
	}
	_, err = repos.Deletions.AddDeletionRequests(ctx, &core.DeletionRequest{
		UserId:       users[0].Id,
		Status:       core.DeletionPending,
		ScheduledFor: now.Add(-48 * time.Hour),
	})
	if err != nil {
		panic(err)
	}

	fmt.Println("seed complete")
}

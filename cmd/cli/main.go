package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/ZilDuck/nft-marketplace-engine/internal/config"
	"github.com/ZilDuck/nft-marketplace-engine/internal/config/di"
	"github.com/ZilDuck/nft-marketplace-engine/internal/repository"
	"github.com/hashicorp/go-retryablehttp"
	sarulabs "github.com/sarulabs/di/v2"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	container   sarulabs.Container
	listingRepo repository.ListingRepository
	offerRepo   repository.OfferRepository
	auctionRepo repository.AuctionRepository
)

func main() {
	config.Init("cli")

	var err error
	container, err = di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	listingRepo = container.Get("listing.repo").(repository.ListingRepository)
	offerRepo = container.Get("offer.repo").(repository.OfferRepository)
	auctionRepo = container.Get("auction.repo").(repository.AuctionRepository)

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "listings",
				Usage:  "Show active listings",
				Action: showListings,
			},
			{
				Name:   "expiredOffers",
				Usage:  "Show active offers whose expiry has passed (escrow still held)",
				Action: showExpiredOffers,
			},
			{
				Name:   "endedAuctions",
				Usage:  "Show ended auctions waiting for settlement",
				Action: showEndedAuctions,
			},
			{
				Name:   "sweepOffers",
				Usage:  "Refund every expired active offer via the engine api",
				Action: sweepOffers,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "caller", Value: "", Usage: "admin account performing the sweep"},
				},
			},
			{
				Name:   "params",
				Usage:  "Show the current marketplace parameters",
				Action: showParams,
			},
			{
				Name:   "setParam",
				Usage:  "Set an admin marketplace parameter via the engine api",
				Action: setParam,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "caller", Value: "", Usage: "admin account"},
					&cli.StringFlag{Name: "name", Value: "", Usage: "parameter name"},
					&cli.StringFlag{Name: "value", Value: "", Usage: "parameter value"},
				},
			},
		},
	}

	err = app.Run(os.Args)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start CLI")
	}
}

func showListings(c *cli.Context) error {
	listings, err := listingRepo.GetActiveListings(100)
	if err != nil {
		return err
	}

	for _, listing := range listings {
		fmt.Printf("%s %s %d\n", listing.Id, listing.Token.String(), listing.Price)
	}

	return nil
}

func showExpiredOffers(c *cli.Context) error {
	offers, err := offerRepo.GetExpiredOffers(time.Now().Unix(), 100)
	if err != nil {
		return err
	}

	for _, offer := range offers {
		fmt.Printf("%s %s %d (expired %d)\n", offer.Id, offer.Token.String(), offer.Amount, offer.ExpiresAt)
	}

	return nil
}

func showEndedAuctions(c *cli.Context) error {
	auctions, err := auctionRepo.GetEndedAuctions(time.Now().Unix(), 100)
	if err != nil {
		return err
	}

	for _, auction := range auctions {
		fmt.Printf("%s %s bid %d by %s\n", auction.Id, auction.Token.String(), auction.HighestBid, auction.HighestBidder)
	}

	return nil
}

func showParams(c *cli.Context) error {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 3

	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/admin/params", config.Get().ApiPort))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	fmt.Println(string(body))

	return nil
}

func sweepOffers(c *cli.Context) error {
	return post("/admin/offers/sweep", map[string]interface{}{
		"caller": c.String("caller"),
	})
}

func setParam(c *cli.Context) error {
	return post("/admin/params", map[string]interface{}{
		"caller": c.String("caller"),
		"name":   c.String("name"),
		"value":  c.String("value"),
	})
}

func post(path string, body map[string]interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 3

	url := fmt.Sprintf("http://localhost:%s%s", config.Get().ApiPort, path)
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("engine api returned %d", resp.StatusCode)
	}

	fmt.Println("OK")

	return nil
}

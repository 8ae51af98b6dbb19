package bgg

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/utils"
)

// Client fetches board game records from the BoardGameGeek XML API v2.
type Client interface {
	GetThing(ctx context.Context, bggID int) (*Thing, error)
}

type Thing struct {
	BGGID         int
	Name          string
	Description   string
	YearPublished int
	MinPlayers    int
	MaxPlayers    int
	PlayTimeMins  int
	ThumbnailURL  string
}

type client struct {
	httpClient *http.Client
	log        *logger.Logger
	baseURL    string
}

func NewClient(log *logger.Logger) Client {
	return &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With("client", "BGGClient"),
		baseURL:    utils.GetEnv("BGG_BASE_URL", "https://boardgamegeek.com/xmlapi2", log),
	}
}

type xmlItems struct {
	Items []xmlItem `xml:"item"`
}

type xmlItem struct {
	ID          string     `xml:"id,attr"`
	Thumbnail   string     `xml:"thumbnail"`
	Description string     `xml:"description"`
	Names       []xmlNamed `xml:"name"`
	Year        xmlValued  `xml:"yearpublished"`
	MinPlayers  xmlValued  `xml:"minplayers"`
	MaxPlayers  xmlValued  `xml:"maxplayers"`
	PlayTime    xmlValued  `xml:"playingtime"`
}

type xmlNamed struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type xmlValued struct {
	Value string `xml:"value,attr"`
}

func (c *client) GetThing(ctx context.Context, bggID int) (*Thing, error) {
	url := fmt.Sprintf("%s/thing?id=%d", c.baseURL, bggID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bgg request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bgg returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed xmlItems
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode bgg response: %w", err)
	}
	if len(parsed.Items) == 0 {
		return nil, fmt.Errorf("bgg thing %d not found", bggID)
	}
	item := parsed.Items[0]

	name := ""
	for _, n := range item.Names {
		if n.Type == "primary" {
			name = n.Value
			break
		}
		if name == "" {
			name = n.Value
		}
	}
	return &Thing{
		BGGID:         bggID,
		Name:          name,
		Description:   item.Description,
		YearPublished: atoi(item.Year.Value),
		MinPlayers:    atoi(item.MinPlayers.Value),
		MaxPlayers:    atoi(item.MaxPlayers.Value),
		PlayTimeMins:  atoi(item.PlayTime.Value),
		ThumbnailURL:  item.Thumbnail,
	}, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

package api

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/alexis/lmsadmin/internal/models"
)

// overview is the dashboard landing payload.
type overview struct {
	Stats         *models.DashboardStats  `json:"stats"`
	RulesByType   map[models.RuleType]int `json:"rulesByType"`
	Products      int                     `json:"products"`
	Transactions  int                     `json:"transactions"`
	Pending       int                     `json:"pending"`
	Recent        []models.Transaction    `json:"recent"`
	MembersLoaded bool                    `json:"membersLoaded"`
	DirectorySize int                     `json:"directorySize"`
	OpenDrafts    int                     `json:"openDrafts"`
	StreamClients int                     `json:"streamClients"`
}

const recentTransactions = 5

// Overview fetches stats, rules, products and transactions concurrently.
// Any upstream failure fails the whole overview.
func (s *Server) Overview(w http.ResponseWriter, r *http.Request) {
	var (
		out      overview
		rules    []models.Rule
		products []models.Product
		txs      []models.Transaction
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		out.Stats, err = s.api.MemberStats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		rules, err = s.api.ListRules(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.api.ListProducts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.api.ListTransactions(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		respondUpstream(w, err)
		return
	}

	out.RulesByType = models.CountRulesByType(rules)
	out.Products = len(products)
	out.Transactions = len(txs)
	for _, t := range txs {
		if t.Status == models.StatusPending {
			out.Pending++
		}
	}
	out.Recent = txs
	if len(out.Recent) > recentTransactions {
		out.Recent = out.Recent[:recentTransactions]
	}
	if out.Recent == nil {
		out.Recent = []models.Transaction{}
	}
	if s.members != nil {
		out.MembersLoaded = s.members.Loaded()
		out.DirectorySize = len(s.members.Members())
	}
	if s.drafts != nil {
		out.OpenDrafts = s.drafts.Count()
	}
	out.StreamClients = s.broadcaster.ClientCount()

	respondJSON(w, http.StatusOK, out)
}

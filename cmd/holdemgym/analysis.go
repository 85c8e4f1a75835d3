package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/holdemgym/internal/deck"
	"github.com/lox/holdemgym/internal/evaluator"
	"github.com/lox/holdemgym/internal/randutil"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))
)

// EquityCmd estimates a hand's chance against one random opponent hand.
type EquityCmd struct {
	Hand    string `arg:"" help:"Hole cards, e.g. AsKs"`
	Board   string `short:"b" help:"Community cards, e.g. Td7s8h"`
	Samples int    `short:"i" default:"100000" help:"Number of Monte Carlo samples"`
	Seed    *int64 `help:"Random seed for reproducible results"`
}

func (c *EquityCmd) Run() error {
	hole, board, err := parseSituation(c.Hand, c.Board)
	if err != nil {
		return err
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
	}
	rng := randutil.New(randutil.SeedOrNow(seed))

	start := time.Now()
	res, err := evaluator.Estimator{Samples: c.Samples}.Estimate(rng, hole, board, deck.FullDeck())
	if err != nil {
		return err
	}
	renderEquity(os.Stdout, hole, board, res, time.Since(start))
	return nil
}

func renderEquity(out io.Writer, hole, board []deck.Card, res evaluator.EquityResult, elapsed time.Duration) {
	if len(board) > 0 {
		fmt.Fprintf(out, "%s\n", headerStyle.Render("board"))
		fmt.Fprintf(out, "%s\n\n", deck.FormatCards(board))
	}

	low, high := res.ConfidenceInterval()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("hand"),
		headerStyle.Render("equity"),
		headerStyle.Render("win"),
		headerStyle.Render("tie"),
		headerStyle.Render("95% ci"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		handStyle.Render(deck.FormatCards(hole)),
		winStyle.Render(fmt.Sprintf("%.1f%%", res.Equity()*100)),
		winStyle.Render(fmt.Sprintf("%.1f%%", res.WinRate()*100)),
		tieStyle.Render(fmt.Sprintf("%.1f%%", res.TieRate()*100)),
		fmt.Sprintf("%.1f%% - %.1f%%", low*100, high*100))
	w.Flush()

	fmt.Fprintf(out, "\n%d samples in %v\n", res.Samples, elapsed.Truncate(time.Millisecond))
}

// EvalCmd ranks one or more hands on a board.
type EvalCmd struct {
	Hands []string `arg:"" help:"Hole cards for each player, e.g. AsKs 7c2d"`
	Board string   `short:"b" help:"Community cards, e.g. QhJhTh2s3d"`
}

type evaluated struct {
	hole []deck.Card
	rank evaluator.HandRank
}

func (c *EvalCmd) Run() error {
	results, board, err := evaluateHands(c.Hands, c.Board)
	if err != nil {
		return err
	}
	renderEval(os.Stdout, results, board)
	return nil
}

func evaluateHands(hands []string, boardStr string) ([]evaluated, []deck.Card, error) {
	board, err := deck.ParseCards(boardStr)
	if err != nil {
		return nil, nil, fmt.Errorf("board: %w", err)
	}

	seen := append([]deck.Card(nil), board...)
	results := make([]evaluated, 0, len(hands))
	for i, h := range hands {
		hole, err := deck.ParseCards(h)
		if err != nil {
			return nil, nil, fmt.Errorf("hand %d: %w", i+1, err)
		}
		if len(hole) != 2 {
			return nil, nil, fmt.Errorf("hand %d: must contain exactly 2 cards, got %d", i+1, len(hole))
		}
		seen = append(seen, hole...)
		if _, err := deck.NewSet(seen...); err != nil {
			return nil, nil, fmt.Errorf("hand %d: %w", i+1, err)
		}
		rank, err := evaluator.Evaluate(hole, board)
		if err != nil {
			return nil, nil, fmt.Errorf("hand %d: %w", i+1, err)
		}
		results = append(results, evaluated{hole: hole, rank: rank})
	}
	return results, board, nil
}

func renderEval(out io.Writer, results []evaluated, board []deck.Card) {
	if len(board) > 0 {
		fmt.Fprintf(out, "%s\n", headerStyle.Render("board"))
		fmt.Fprintf(out, "%s\n\n", deck.FormatCards(board))
	}

	var best evaluator.HandRank
	for i, r := range results {
		if i == 0 || r.rank.Compare(best) > 0 {
			best = r.rank
		}
	}
	winners := 0
	for _, r := range results {
		if r.rank.Equal(best) {
			winners++
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", headerStyle.Render("hand"), headerStyle.Render("rank"), headerStyle.Render("result"))
	for _, r := range results {
		result := ""
		if len(results) > 1 && r.rank.Equal(best) {
			result = winStyle.Render("wins")
			if winners > 1 {
				result = tieStyle.Render("ties")
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			handStyle.Render(deck.FormatCards(r.hole)),
			categoryStyle.Render(r.rank.String()),
			result)
	}
	w.Flush()
}

// parseSituation parses hole and board cards and checks they are distinct.
func parseSituation(hand, board string) ([]deck.Card, []deck.Card, error) {
	hole, err := deck.ParseCards(hand)
	if err != nil {
		return nil, nil, fmt.Errorf("hand: %w", err)
	}
	if len(hole) != 2 {
		return nil, nil, fmt.Errorf("hand must contain exactly 2 cards, got %d", len(hole))
	}
	community, err := deck.ParseCards(board)
	if err != nil {
		return nil, nil, fmt.Errorf("board: %w", err)
	}
	if len(community) > 5 {
		return nil, nil, fmt.Errorf("board cannot have more than 5 cards")
	}
	if _, err := deck.NewSet(append(append([]deck.Card(nil), hole...), community...)...); err != nil {
		return nil, nil, err
	}
	return hole, community, nil
}

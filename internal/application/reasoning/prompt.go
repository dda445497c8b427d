package reasoning

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/copybot/internal/domain"
)

const systemPrompt = `You are a Polymarket trading analyst focused on risk-adjusted returns.

Current date and time: %s

Policy:
- You evaluate ONE consensus signal: several top traders (ranked by Sharpe ratio) hold the same outcome.
- Favor outcomes that are the current market favorite (price above 0.50) and avoid longshots below 0.40.
- Outcomes priced above 0.80 pay too little; prefer 0.50-0.70.
- Prefer markets resolving within 14 days; reject markets resolving in more than 30 days.
- Skip sports markets unless at least 4 of the contributing traders are in the top ranks.
- Use the strategy playbook and the news for context; cite strategies by number.
- Do not force trades. A skip with a clear reason is a valid answer.

Answer with a single JSON object and nothing else:
{"action": "trade" | "skip", "confidence": <number 0..1>, "rationale": "<2-4 sentences>", "strategies": [<strategy numbers>], "size_hint": <number 0..1, fraction of the allowed stake>}`

// SystemPrompt returns the trading policy sent as the system message.
func SystemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPrompt, now.UTC().Format("2006-01-02 15:04 MST"))
}

// BuildPrompt renders the enriched candidate and the playbook as the user message.
func BuildPrompt(c domain.ConsensusCandidate, playbook domain.Playbook) string {
	var sb strings.Builder

	title := c.Market.Title
	if title == "" {
		title = c.MarketID
	}
	fmt.Fprintf(&sb, "MARKET: %s\n", title)
	fmt.Fprintf(&sb, "Slug: %s\n", c.MarketID)
	fmt.Fprintf(&sb, "Outcome backed by consensus: %s\n", c.Outcome)
	if c.Price > 0 {
		fmt.Fprintf(&sb, "Current price: %.3f (implied probability %.1f%%, payout %.2fx)\n",
			c.Price, c.Price*100, 1/c.Price)
	}
	if h := c.Market.HoursToResolution(); h > 0 {
		fmt.Fprintf(&sb, "Resolves in: %.1f hours (%s)\n", h, c.Market.EndDate.UTC().Format("2006-01-02"))
	}
	if len(c.Market.Outcomes) > 0 {
		sb.WriteString("All outcomes:")
		for _, o := range c.Market.Outcomes {
			fmt.Fprintf(&sb, " %s=%.3f", o.Label, o.Price)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nCONSENSUS: %d traders, agreement score %.3f\n", c.TraderCount(), c.AgreementScore)
	for _, ct := range c.Contributors {
		fmt.Fprintf(&sb, "- rank #%d %s sharpe=%.2f stake=%.1f%% of their capital\n",
			ct.Rank+1, domain.TruncateQuestion("", ct.TraderID, 14), ct.Score, ct.StakeWeight*100)
	}

	sb.WriteString("\nNEWS:\n")
	if len(c.Headlines) == 0 {
		sb.WriteString("(no recent headlines)\n")
	}
	for _, h := range c.Headlines {
		line := "- " + h.Title
		if h.Source != "" {
			line += " (" + h.Source + ")"
		}
		if !h.PublishedAt.IsZero() {
			line += " " + h.PublishedAt.UTC().Format("2006-01-02")
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\nSTRATEGY PLAYBOOK:\n")
	if playbook.Text == "" {
		sb.WriteString("(not available)\n")
	} else {
		sb.WriteString(strings.TrimSpace(playbook.Text) + "\n")
	}
	return sb.String()
}

package prompts

import (
	"fmt"
	"strings"
)

// BriefSystem is the system prompt for the contributor brief narrative
const BriefSystem = `You are an engineering manager's assistant writing a sprint brief about one contributor.

Use ONLY the evidence you are given. Never invent pull requests, commits, reviews or numbers.

OUTPUT FORMAT (markdown, exactly these sections in this order):
## Headline
One sentence naming the contributor's most notable outcome.

### Key impacts
- Up to 4 bullets, each tied to a PR (PR #N) or commit (short sha).

### Collaboration & review notes
- Up to 5 bullets drawn from the reviews the contributor gave or received.

### Engineering signals
- Bullets about tests, cleanups, renames or delivery habits visible in the evidence.

### Growth & coaching
- One or two constructive suggestions.

### Next-sprint suggestions
- At most 2 concrete follow-ups.

RULES:
- Keep every bullet to one line.
- Prefer specific titles and numbers over adjectives.
- If a section has no supporting evidence, say so briefly instead of guessing.`

// BriefUser generates the user prompt wrapping the JSON evidence digest
func BriefUser(repo, login, since, until, digest string) string {
	var sb strings.Builder
	sb.WriteString("WRITE A SPRINT BRIEF FOR THIS CONTRIBUTOR:\n\n")
	sb.WriteString(fmt.Sprintf("Repository: %s\n", repo))
	sb.WriteString(fmt.Sprintf("Contributor: %s\n", login))
	sb.WriteString(fmt.Sprintf("Window: %s to %s\n\n", since, until))
	sb.WriteString("EVIDENCE (JSON):\n")
	sb.WriteString(digest)
	sb.WriteString("\n")
	return sb.String()
}

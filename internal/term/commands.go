package term

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds the edit distance for "did you mean" hints.
const maxSuggestDistance = 2

func (it *Interpreter) list(args []string, _ string) {
	long, all := false, false
	for _, a := range args {
		switch a {
		case "-la", "-al":
			long = true
		case "-a":
			all = true
		}
	}
	if long {
		it.listLong()
		return
	}
	names := it.fs.ListNames(all)
	if len(names) == 0 {
		return
	}
	it.text(StyleSystem, strings.Join(names, "   "))
}

func (it *Interpreter) listLong() {
	entries := it.fs.ListAll()
	ownerW, groupW, sizeW := 0, 0, 0
	for _, e := range entries {
		ownerW = max(ownerW, len(e.Owner))
		groupW = max(groupW, len(e.Group))
		sizeW = max(sizeW, len(fmt.Sprint(e.Size)))
	}
	it.text(StyleTotal, fmt.Sprintf("total %d", it.fs.TotalSize()))
	for _, e := range entries {
		it.text(StyleSystem, fmt.Sprintf("%s %d %-*s %-*s %*d %s %s",
			e.Permissions, 1, ownerW, e.Owner, groupW, e.Group, sizeW, e.Size, e.ModDate, e.Name))
	}
}

func (it *Interpreter) cat(args []string, _ string) {
	msgs := it.story.Messages
	if len(args) == 0 {
		it.text(StyleWarning, it.story.Expand(msgs.FileNotFound, msgs.NoFileSpecified))
		return
	}
	name := args[0]
	rec, ok := it.fs.Lookup(name)
	if !ok {
		it.text(StyleWarning, it.story.Expand(msgs.FileNotFound, name))
		return
	}
	it.markup(rec.Content)

	if name == it.story.VirusLog && it.commandCount > it.story.DecisionThreshold {
		d := it.story.Decision
		it.promptYesNo(d.Question, it.styled(d.Yes), it.styled(d.No))
	}
}

func (it *Interpreter) clear([]string, string) {
	it.out.Clear()
}

func (it *Interpreter) elevate(args []string, _ string) {
	target := strings.Join(args, " ")
	if target == it.story.Script.Invocation {
		it.finale()
		return
	}
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	it.text(StyleWarning, it.story.Expand(it.story.Messages.ElevateNotFound, arg))
}

func (it *Interpreter) runScript(_ []string, line string) {
	msgs := it.story.Messages
	it.text(StyleError, msgs.PermissionDenied)
	it.text(StyleWarning, it.story.Expand(msgs.PermissionHint, line))
}

func (it *Interpreter) unknown(name string) {
	msgs := it.story.Messages
	it.text(StyleError, it.story.Expand(msgs.UnknownCommand, name))
	if s := it.suggest(name); s != "" && msgs.DidYouMean != "" {
		it.text(StyleMessage, it.story.Expand(msgs.DidYouMean, s))
	}
}

// suggest returns the closest known command, or "" when none is close enough.
func (it *Interpreter) suggest(name string) string {
	known := make([]string, 0, len(it.commands))
	for k := range it.commands {
		known = append(known, k)
	}
	sort.Strings(known)

	best, bestDist := "", maxSuggestDistance+1
	for _, k := range known {
		d := levenshtein.ComputeDistance(name, k)
		if d < bestDist && d < len(k) {
			best, bestDist = k, d
		}
	}
	return best
}

func (it *Interpreter) finale() {
	if it.newAnimator != nil {
		if a := it.newAnimator(); a != nil {
			it.out.Append(Line{Kind: LineElement, Element: a.Surface()})
			a.Start()
		}
	}
	it.markup(it.story.Finale)
	it.mode = ModeFinale
	it.logger.Info("term.finale", "commands", it.commandCount)
	it.events.FinaleReached()
}

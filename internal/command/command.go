// Package command parses bench input lines and runs them against a crafting
// session.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lawnchairsociety/crucible/internal/bench"
	"github.com/lawnchairsociety/crucible/internal/help"
	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/mutator"
)

type Command struct {
	Name string
	Args []string
}

// RequireArgs checks if the command has at least the minimum number of arguments
// Returns an error with the usage message if not enough arguments are provided
func (c *Command) RequireArgs(min int, usage string) error {
	if len(c.Args) < min {
		return errors.New(usage)
	}
	return nil
}

// Rest joins all arguments, for multi-word currency and base names
func (c *Command) Rest() string {
	return strings.Join(c.Args, " ")
}

// IsQuit reports whether the command ends the connection
func (c *Command) IsQuit() bool {
	return c.Name == "quit" || c.Name == "exit"
}

func ParseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Name: "", Args: []string{}}
	}

	return &Command{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// Execute runs the command and returns the text to show the user.
func (c *Command) Execute(s *bench.Session) string {
	switch c.Name {
	case "":
		return ""
	case "help", "?":
		return help.Default().Text(c.Rest())
	case "new", "create":
		return c.executeNew(s)
	case "apply", "use":
		return c.executeApply(s)
	case "rollback":
		return c.executeRollback(s)
	case "undo":
		return c.executeUndo(s)
	case "verify":
		return c.executeVerify(s)
	case "show", "look", "l", "item":
		return c.executeShow(s)
	case "json", "serialize":
		return c.executeJSON(s)
	case "log", "history":
		return c.executeLog(s)
	case "journal":
		return c.executeJournal(s)
	case "currencies", "orbs":
		return c.executeCurrencies(s)
	case "bases":
		return c.executeBases(s)
	case "quit", "exit":
		return "The forge cools. Goodbye."
	default:
		return fmt.Sprintf("Unknown command: %s. Type 'help' for available commands.", c.Name)
	}
}

// executeNew handles: new <base> [rarity]
// The last word is taken as the rarity when it names one of the built-in tiers.
func (c *Command) executeNew(s *bench.Session) string {
	if err := c.RequireArgs(1, "Usage: new <base> [common|magic|rare|unique]"); err != nil {
		return err.Error()
	}

	baseName, rarity := c.Rest(), ""
	if len(c.Args) > 1 {
		last := strings.ToLower(c.Args[len(c.Args)-1])
		if items.Rarity(last).In(items.Common, items.Magic, items.Rare, items.Unique) {
			baseName, rarity = strings.Join(c.Args[:len(c.Args)-1], " "), last
		}
	}

	item, err := s.NewItem(baseName, rarity)
	if err != nil {
		if errors.Is(err, bench.ErrUnknownBase) {
			return fmt.Sprintf("There is no item base called '%s'. Type 'bases' to list them.", baseName)
		}
		return fmt.Sprintf("Could not create item: %v", err)
	}
	return "A new item is placed on the bench.\n" + FormatItem(item)
}

func (c *Command) executeApply(s *bench.Session) string {
	if err := c.RequireArgs(1, "Usage: apply <currency>"); err != nil {
		return err.Error()
	}

	item, tx, err := s.Apply(c.Rest())
	var pe *mutator.PreconditionError
	switch {
	case errors.Is(err, bench.ErrNoItem):
		return "There is nothing on the bench. Use 'new <base>' first."
	case errors.Is(err, bench.ErrUnknownCurrency):
		return fmt.Sprintf("You don't know of any currency called '%s'. Type 'currencies' to list them.", c.Rest())
	case errors.As(err, &pe):
		return fmt.Sprintf("The %s has no effect: %v.", pe.Currency, err)
	case err != nil:
		return fmt.Sprintf("The currency fizzles: %v", err)
	}
	return fmt.Sprintf("You apply the %s. [%s]\n%s", tx.Currency(), tx.ID(), FormatItem(item))
}

func (c *Command) executeRollback(s *bench.Session) string {
	if err := c.RequireArgs(1, "Usage: rollback <transaction id>"); err != nil {
		return err.Error()
	}

	item, err := s.Rollback(c.Args[0])
	if errors.Is(err, mutator.ErrTransactionNotFound) {
		return fmt.Sprintf("No transaction '%s' in the log.", c.Args[0])
	}
	if err != nil {
		return fmt.Sprintf("Rollback failed: %v", err)
	}
	return fmt.Sprintf("The item returns to its state before %s.\n%s", c.Args[0], FormatItem(item))
}

func (c *Command) executeUndo(s *bench.Session) string {
	item, id, err := s.Undo()
	if errors.Is(err, bench.ErrNothingToUndo) {
		return "There is nothing to undo."
	}
	if err != nil {
		return fmt.Sprintf("Undo failed: %v", err)
	}
	return fmt.Sprintf("Undid %s.\n%s", id, FormatItem(item))
}

func (c *Command) executeVerify(s *bench.Session) string {
	ok, err := s.Verify()
	if err != nil {
		return "There is nothing on the bench to verify."
	}
	if ok {
		return "Verified: the item matches the last logged result."
	}
	return "Mismatch: the item differs from the last logged result."
}

func (c *Command) executeShow(s *bench.Session) string {
	item, ok := s.Item()
	if !ok {
		return "The bench is empty."
	}
	return FormatItem(item)
}

func (c *Command) executeJSON(s *bench.Session) string {
	item, ok := s.Item()
	if !ok {
		return "The bench is empty."
	}
	return item.Serialize()
}

func (c *Command) executeLog(s *bench.Session) string {
	history := s.History()
	if len(history) == 0 {
		return "No currencies have been applied yet."
	}

	var sb strings.Builder
	sb.WriteString("Transaction log:\n")
	for i, tx := range history {
		fmt.Fprintf(&sb, "  %2d. %s  %-22s %s  %s\n",
			i+1, tx.ID(), tx.Currency(), tx.Timestamp().Format("15:04:05"), tx.Digest()[:12])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (c *Command) executeJournal(s *bench.Session) string {
	entries, err := s.Journal()
	switch {
	case errors.Is(err, bench.ErrNoJournal):
		return "This bench keeps no journal."
	case errors.Is(err, bench.ErrNoItem):
		return "There is nothing on the bench."
	case err != nil:
		return fmt.Sprintf("The journal cannot be read: %v", err)
	case len(entries) == 0:
		return "The journal has no entries for this item."
	}

	var sb strings.Builder
	sb.WriteString("Journal:\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "  #%-4d %s  %-22s %s  %s\n",
			e.Seq, e.ID, e.Currency, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Digest[:12])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (c *Command) executeCurrencies(s *bench.Session) string {
	usable := map[string]bool{}
	for _, cur := range s.Usable() {
		usable[cur.ID()] = true
	}

	var sb strings.Builder
	sb.WriteString("Currencies (* = usable on the bench item):\n")
	for _, cur := range s.Currencies() {
		mark := " "
		if usable[cur.ID()] {
			mark = "*"
		}
		fmt.Fprintf(&sb, " %s %-22s %s\n", mark, cur.Name(), cur.Description())
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (c *Command) executeBases(s *bench.Session) string {
	var sb strings.Builder
	sb.WriteString("Item bases:\n")
	for _, base := range s.Bases() {
		fmt.Fprintf(&sb, "  %-20s %s", base.Name, base.Type)
		if len(base.ImplicitMods) > 0 {
			fmt.Fprintf(&sb, "  (%s)", strings.Join(base.ImplicitMods, ", "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatItem renders an item for display.
func FormatItem(item items.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s]", item.Base.Name, item.Rarity)
	if item.Quality > 0 {
		fmt.Fprintf(&sb, " +%d%% quality", item.Quality)
	}
	if item.Corrupted {
		sb.WriteString(" (corrupted)")
	}
	for _, m := range item.Base.ImplicitMods {
		fmt.Fprintf(&sb, "\n  %s (implicit)", m)
	}
	for _, m := range item.Base.EldritchImplicits {
		fmt.Fprintf(&sb, "\n  %s (eldritch)", m)
	}
	if len(item.ExplicitMods) > 0 {
		sb.WriteString("\n  ---")
	}
	for _, m := range item.ExplicitMods {
		fmt.Fprintf(&sb, "\n  %s", m.Text)
	}
	for _, m := range item.CraftedMods {
		fmt.Fprintf(&sb, "\n  %s (crafted)", m)
	}
	return sb.String()
}

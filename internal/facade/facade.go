// Package facade is the interactive query prompt over a loaded store.
//
// The prompt reads one answer per line. Each top-level choice opens a
// submenu, runs a single query and prints the result as a table before
// returning to the top. Unrecognised answers re-prompt and never end the
// session; end of input ends it quietly.
package facade

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/hazyhaar/automata/internal/entity"
	"github.com/hazyhaar/automata/internal/store"
)

// Querier is the read side the prompt needs. Both *store.Store and the
// service wrapping it satisfy it.
type Querier interface {
	Characters(ctx context.Context, f store.CharacterFilter) ([]store.CharacterRow, error)
	Locations(ctx context.Context, f store.LocationFilter) ([]store.LocationRow, error)
	Quests(ctx context.Context, f store.QuestFilter) ([]store.QuestRow, error)
	Catchables(ctx context.Context, f store.CatchableFilter) ([]store.CatchableRow, error)
	Stat(ctx context.Context, kind store.StatKind) ([]store.StatRow, error)
	Images(ctx context.Context, kind store.Kind, nameLike string) ([]store.Image, error)
	Names(ctx context.Context, kind store.Kind) ([]string, error)
}

// Options configures a Prompt.
type Options struct {
	// ImagePath maps an asset handle to a file. When nil the image menu
	// prints handles and sizes only.
	ImagePath func(handle string) (string, error)
	Logger    *slog.Logger
	// Suggestions caps the close names offered after an empty name search.
	// Zero means 3.
	Suggestions int
}

const (
	msgInvalid = "Invalid input please try again."
	msgBack    = "Back"
	msgExit    = "Exit"
)

// errBack unwinds a submenu to the top-level prompt.
var errBack = errors.New("back")

// Prompt is one interactive session.
type Prompt struct {
	q    Querier
	in   *bufio.Scanner
	out  io.Writer
	opts Options
}

// New returns a prompt reading answers from in and writing to out.
func New(q Querier, in io.Reader, out io.Writer, opts Options) *Prompt {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Suggestions <= 0 {
		opts.Suggestions = 3
	}
	return &Prompt{q: q, in: bufio.NewScanner(in), out: out, opts: opts}
}

// Run drives the session until "exit", end of input or ctx is done.
// It returns nil on "exit" and on end of input.
func (p *Prompt) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ans, err := p.ask("Select the entity that you would like to query (character, location, quest, catchable) or stats or image or exit: ")
		if err != nil {
			return endOfInput(err)
		}

		switch ans {
		case "exit":
			p.println(msgExit)
			return nil
		case "stats":
			err = p.stats(ctx)
		case "image":
			err = p.image(ctx)
		default:
			kind, perr := store.ParseKind(ans)
			if perr != nil {
				p.println(msgInvalid)
				continue
			}
			err = p.entity(ctx, kind)
		}

		switch {
		case err == nil, errors.Is(err, errBack):
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			p.opts.Logger.Warn("facade: query failed", "error", err)
			p.printf("Query failed: %v\n", err)
		}
	}
}

func (p *Prompt) entity(ctx context.Context, kind store.Kind) error {
	switch kind {
	case store.KindCharacter:
		return p.characters(ctx)
	case store.KindLocation:
		return p.locations(ctx)
	case store.KindQuest:
		return p.quests(ctx)
	default:
		return p.catchables(ctx)
	}
}

func (p *Prompt) characters(ctx context.Context) error {
	for {
		ans, err := p.ask("Select your filter on characters (all, with main quest, with side quest, name) or go back: ")
		if err != nil {
			return err
		}
		var f store.CharacterFilter
		switch ans {
		case "all":
		case "with main quest":
			f.QuestCategory = entity.Main
		case "with side quest":
			f.QuestCategory = entity.Side
		case "name":
			if f.NameLike, err = p.askRaw("Please enter the name of the character: "); err != nil {
				return err
			}
		case "back":
			p.println(msgBack)
			return errBack
		default:
			p.println(msgInvalid)
			continue
		}
		rows, err := p.q.Characters(ctx, f)
		if err != nil {
			return err
		}
		p.print(characterTable(rows))
		if len(rows) == 0 {
			return p.suggest(ctx, store.KindCharacter, f.NameLike)
		}
		return nil
	}
}

func (p *Prompt) locations(ctx context.Context) error {
	for {
		ans, err := p.ask("Select your filter on locations (all, quest, catchable, name) or go back: ")
		if err != nil {
			return err
		}
		var f store.LocationFilter
		var (
			searched string
			kind     store.Kind
		)
		switch ans {
		case "all":
		case "quest":
			if f.Quest, err = p.askRaw("Please enter the quest whose location you want to search (please enter the exact name for uniqueness): "); err != nil {
				return err
			}
			searched, kind = f.Quest, store.KindQuest
		case "catchable", "fish":
			if f.Catchable, err = p.askRaw("Please enter the catchable whose location you want to search (please enter the exact name for uniqueness): "); err != nil {
				return err
			}
			searched, kind = f.Catchable, store.KindCatchable
		case "name":
			if f.NameLike, err = p.askRaw("Please enter the name of the location: "); err != nil {
				return err
			}
			searched, kind = f.NameLike, store.KindLocation
		case "back":
			p.println(msgBack)
			return errBack
		default:
			p.println(msgInvalid)
			continue
		}
		rows, err := p.q.Locations(ctx, f)
		if err != nil {
			return err
		}
		p.print(locationTable(rows))
		if len(rows) == 0 && kind != "" {
			return p.suggest(ctx, kind, searched)
		}
		return nil
	}
}

func (p *Prompt) quests(ctx context.Context) error {
	for {
		ans, err := p.ask("Select your filter on quests (all, giver, location, reward, category, name) or go back: ")
		if err != nil {
			return err
		}
		var f store.QuestFilter
		switch ans {
		case "all":
		case "giver":
			v, err := p.askRaw("Please enter the giver of the quest or 'no giver': ")
			if err != nil {
				return err
			}
			if strings.EqualFold(v, "no giver") {
				f.NoGiver = true
			} else {
				f.GiverLike = v
			}
		case "location":
			if f.LocationLike, err = p.askRaw("Please enter the location of the quest: "); err != nil {
				return err
			}
		case "reward":
			v, err := p.askRaw("Please enter the reward of the quest or 'no reward': ")
			if err != nil {
				return err
			}
			if strings.EqualFold(v, "no reward") {
				f.NoReward = true
			} else {
				f.RewardLike = v
			}
		case "category":
			v, err := p.askRaw("Please enter the category of the quest (main or side): ")
			if err != nil {
				return err
			}
			c, ok := entity.ParseCategory(v)
			if !ok {
				p.println(msgInvalid)
				continue
			}
			f.Category = c
		case "name":
			if f.NameLike, err = p.askRaw("Please enter the name of the quest: "); err != nil {
				return err
			}
		case "back":
			p.println(msgBack)
			return errBack
		default:
			p.println(msgInvalid)
			continue
		}
		rows, err := p.q.Quests(ctx, f)
		if err != nil {
			return err
		}
		p.print(questTable(rows))
		if len(rows) == 0 {
			if f.NameLike != "" {
				return p.suggest(ctx, store.KindQuest, f.NameLike)
			}
			if f.GiverLike != "" {
				return p.suggest(ctx, store.KindCharacter, f.GiverLike)
			}
		}
		return nil
	}
}

func (p *Prompt) catchables(ctx context.Context) error {
	for {
		ans, err := p.ask("Select your filter on catchables (all, location, price, name) or go back: ")
		if err != nil {
			return err
		}
		var f store.CatchableFilter
		switch ans {
		case "all":
		case "location":
			if f.LocationLike, err = p.askRaw("Please enter the location of the catchable: "); err != nil {
				return err
			}
		case "price":
			price, err := p.askPrice()
			if errors.Is(err, errBack) {
				continue
			}
			if err != nil {
				return err
			}
			f.MinPrice = &price
		case "name":
			if f.NameLike, err = p.askRaw("Please enter the name of the catchable: "); err != nil {
				return err
			}
		case "back":
			p.println(msgBack)
			return errBack
		default:
			p.println(msgInvalid)
			continue
		}
		rows, err := p.q.Catchables(ctx, f)
		if err != nil {
			return err
		}
		p.print(catchableTable(rows))
		if len(rows) == 0 {
			return p.suggest(ctx, store.KindCatchable, f.NameLike)
		}
		return nil
	}
}

// askPrice loops until a non-negative number or "back". Fractions are
// truncated.
func (p *Prompt) askPrice() (int, error) {
	for {
		v, err := p.ask("Please enter the minimum price of the catchable (an integer) or go back: ")
		if err != nil {
			return 0, err
		}
		if v == "back" {
			p.println(msgBack)
			return 0, errBack
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > float64(1<<31-1) {
			p.println(msgInvalid)
			continue
		}
		return int(f), nil
	}
}

func (p *Prompt) stats(ctx context.Context) error {
	for {
		for i, k := range store.StatKinds {
			p.printf("%d. %s\n", i+1, k.Label())
		}
		ans, err := p.ask("Select a statistical information or go back: ")
		if err != nil {
			return err
		}
		if ans == "back" {
			p.println(msgBack)
			return errBack
		}
		kind, err := store.ParseStatKind(ans)
		if err != nil {
			p.println(msgInvalid)
			continue
		}
		rows, err := p.q.Stat(ctx, kind)
		if err != nil {
			return err
		}
		p.print(statTable(kind, rows))
		return nil
	}
}

func (p *Prompt) image(ctx context.Context) error {
	for {
		ans, err := p.ask("Choose the entity that you would like to view (character or catchable) or go back: ")
		if err != nil {
			return err
		}
		if ans == "back" {
			p.println(msgBack)
			return errBack
		}
		kind, perr := store.ParseKind(ans)
		if perr != nil || (kind != store.KindCharacter && kind != store.KindCatchable) {
			p.println(msgInvalid)
			continue
		}
		name, err := p.askRaw(fmt.Sprintf("Please enter the name of the %s: ", kind))
		if err != nil {
			return err
		}
		imgs, err := p.q.Images(ctx, kind, name)
		if err != nil {
			return err
		}
		if len(imgs) == 0 {
			p.print(mutedStyle.Render("No images.") + "\n")
			return p.suggest(ctx, kind, name)
		}
		for _, img := range imgs {
			p.printf("%s: %s\n", img.Name, p.imageLocation(img))
		}
		return nil
	}
}

func (p *Prompt) imageLocation(img store.Image) string {
	if p.opts.ImagePath != nil {
		path, err := p.opts.ImagePath(img.Handle)
		if err == nil {
			return path
		}
		p.opts.Logger.Debug("facade: image path", "handle", img.Handle, "error", err)
	}
	return fmt.Sprintf("%s (%d bytes)", img.Handle, len(img.Data))
}

// suggest prints the known names closest to a search that matched nothing.
func (p *Prompt) suggest(ctx context.Context, kind store.Kind, searched string) error {
	if strings.TrimSpace(searched) == "" {
		return nil
	}
	names, err := p.q.Names(ctx, kind)
	if err != nil {
		return err
	}
	near := closest(searched, names, p.opts.Suggestions)
	if len(near) > 0 {
		p.printf("Did you mean: %s?\n", strings.Join(near, ", "))
	}
	return nil
}

// closest returns up to n names fuzzily matching pattern, best first.
// Matching ignores case.
func closest(pattern string, names []string, n int) []string {
	lower := make([]string, len(names))
	for i, s := range names {
		lower[i] = strings.ToLower(s)
	}
	matches := fuzzy.Find(strings.ToLower(strings.TrimSpace(pattern)), lower)
	var out []string
	for _, m := range matches {
		if len(out) == n {
			break
		}
		out = append(out, names[m.Index])
	}
	return out
}

// ask prints question and returns the trimmed, lower-cased answer.
func (p *Prompt) ask(question string) (string, error) {
	v, err := p.askRaw(question)
	return strings.ToLower(v), err
}

// askRaw prints question and returns the trimmed answer.
func (p *Prompt) askRaw(question string) (string, error) {
	p.print(question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("facade: read: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *Prompt) print(s string) { io.WriteString(p.out, s) }

func (p *Prompt) println(s string) { io.WriteString(p.out, s+"\n") }

func (p *Prompt) printf(format string, a ...any) { fmt.Fprintf(p.out, format, a...) }

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

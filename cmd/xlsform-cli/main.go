package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-fieldmap/pkg/orchestrator"
)

// errAborted is returned when the user interrupts the category prompt.
var errAborted = errors.New("xlsform-cli: aborted")

type config struct {
	inputs    []string
	output    string
	category  string
	entities  []string
	existing  string
	tasks     int
	templates string
	jobs      int
	verbose   bool
}

func main() {
	input := flag.String("input", "", "comma separated XLSForm files to update")
	output := flag.String("output", "", "output file, or directory when several inputs are given")
	category := flag.String("category", "", "form category, e.g. buildings (prompted when empty)")
	entities := flag.String("entities", "", "comma separated additional entity lists, e.g. roads,waterpoints")
	existing := flag.String("id", "", "reuse an existing form_id instead of generating one")
	tasks := flag.Int("tasks", 0, "number of task ids to add as a task_filter choice list")
	templatesDir := flag.String("templates", "", "directory with template documents overriding the embedded ones")
	jobs := flag.Int("jobs", 4, "number of forms processed concurrently")
	verbose := flag.Bool("verbose", false, "log pipeline progress to stderr")
	flag.Parse()

	cfg := config{
		inputs:    splitList(*input),
		output:    strings.TrimSpace(*output),
		category:  strings.TrimSpace(*category),
		entities:  splitList(*entities),
		existing:  strings.TrimSpace(*existing),
		tasks:     *tasks,
		templates: strings.TrimSpace(*templatesDir),
		jobs:      *jobs,
		verbose:   *verbose,
	}
	if len(cfg.inputs) == 0 {
		log.Fatalf("at least one -input file is required")
	}
	if len(cfg.inputs) > 1 && cfg.existing != "" {
		log.Fatalf("-id cannot be shared by several inputs")
	}

	ctx := context.Background()

	if cfg.category == "" {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			log.Fatalf("-category is required when stdin is not a terminal")
		}
		value, err := promptCategory()
		if err != nil {
			log.Fatalf("Failed to read category: %v", err)
		}
		cfg.category = value
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Failed to update forms: %v", err)
	}
}

func run(ctx context.Context, cfg config) error {
	gen := orchestrator.New(options(cfg)...)

	group, ctx := errgroup.WithContext(ctx)
	if cfg.jobs > 0 {
		group.SetLimit(cfg.jobs)
	}
	for _, input := range cfg.inputs {
		input := input
		target := outputPath(input, cfg.output, len(cfg.inputs) > 1)
		group.Go(func() error {
			formID, err := process(ctx, gen, input, target, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			fmt.Printf("Form %s written to %s\n", formID, target)
			return nil
		})
	}
	return group.Wait()
}

func options(cfg config) []orchestrator.Option {
	var opts []orchestrator.Option
	if cfg.templates != "" {
		opts = append(opts, orchestrator.WithTemplatesFS(os.DirFS(cfg.templates)))
	}
	if cfg.verbose {
		opts = append(opts, orchestrator.WithLogger(log.New(os.Stderr, "", log.LstdFlags)))
	}
	return opts
}

func process(ctx context.Context, gen *orchestrator.Orchestrator, input, target string, cfg config) (string, error) {
	file, err := os.Open(input)
	if err != nil {
		return "", err
	}
	defer file.Close()

	result, err := gen.Assemble(ctx, orchestrator.Request{
		Form: file,
		Metadata: orchestrator.Metadata{
			Category:           cfg.category,
			AdditionalEntities: cfg.entities,
			ExistingID:         cfg.existing,
			TaskCount:          cfg.tasks,
		},
	})
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(target, result.Data, 0o644); err != nil {
		return "", err
	}
	return result.FormID, nil
}

func promptCategory() (string, error) {
	var out string
	prompt := &survey.Input{
		Message: "Form category",
		Help:    "Plural name of the mapped features, e.g. buildings",
		Default: "buildings",
	}
	err := survey.AskOne(prompt, &out, survey.WithValidator(survey.Required))
	if errors.Is(err, terminal.InterruptErr) {
		return "", errAborted
	}
	return strings.TrimSpace(out), err
}

// outputPath picks where the updated copy of input is written. Without an
// explicit output the file lands next to its input with an "_updated"
// suffix; batch runs treat output as a directory.
func outputPath(input, output string, batch bool) string {
	base := filepath.Base(input)
	updated := strings.TrimSuffix(base, filepath.Ext(base)) + "_updated.xlsx"
	switch {
	case output == "":
		return filepath.Join(filepath.Dir(input), updated)
	case batch:
		return filepath.Join(output, updated)
	default:
		return output
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

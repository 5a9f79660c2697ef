package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/RowanDark/cipherkit/internal/cipher"
	"github.com/RowanDark/cipherkit/internal/logging"
)

func runRecipe(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "recipe subcommand required")
		return 2
	}

	switch args[0] {
	case "save":
		return runRecipeSave(args[1:])
	case "list":
		return runRecipeList(args[1:])
	case "show":
		return runRecipeShow(args[1:])
	case "run":
		return runRecipeRun(args[1:])
	case "delete":
		return runRecipeDelete(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown recipe subcommand: %s\n", args[0])
		return 2
	}
}

// openRecipes loads the recipe store named by the configuration.
func openRecipes() (*environment, *cipher.RecipeManager, error) {
	env, err := loadEnvironment("cipherctl")
	if err != nil {
		return nil, nil, err
	}
	rm := cipher.NewRecipeManager(env.cfg.RecipesDir)
	if err := rm.LoadRecipes(); err != nil {
		env.close()
		return nil, nil, err
	}
	return env, rm, nil
}

func runRecipeSave(args []string) int {
	fs := flag.NewFlagSet("recipe save", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "recipe name")
	description := fs.String("description", "", "recipe description")
	tags := fs.String("tags", "", "comma separated tags")
	file := fs.String("file", "", "pipeline file (YAML or JSON)")
	steps := fs.String("steps", "", "comma separated operation names")
	reversible := fs.Bool("reversible", false, "mark the recipe as reversible")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "-name is required")
		return 2
	}
	pipeline, err := loadSteps(*file, *steps)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *reversible {
		pipeline.Reversible = true
	}

	env, rm, err := openRecipes()
	if err != nil {
		reportError("recipes", err)
		return 1
	}
	defer env.close()

	recipe := &cipher.Recipe{
		Name:        *name,
		Description: *description,
		Tags:        splitTags(*tags),
		Pipeline:    pipeline,
	}
	if err := rm.SaveRecipe(recipe); err != nil {
		reportError("save", err)
		return 1
	}
	if env.logger != nil {
		_ = env.logger.Emit(logging.AuditEvent{
			EventType: logging.EventRecipeSaved,
			Decision:  logging.DecisionAllow,
			Metadata:  map[string]any{"recipe": recipe.Name},
		})
	}
	fmt.Fprintf(os.Stdout, "saved recipe %s (%s)\n", recipe.Name, recipe.ID)
	return 0
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func runRecipeList(args []string) int {
	fs := flag.NewFlagSet("recipe list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	query := fs.String("q", "", "search name, description and tags")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	env, rm, err := openRecipes()
	if err != nil {
		reportError("recipes", err)
		return 1
	}
	defer env.close()

	recipes := rm.ListRecipes()
	if *query != "" {
		recipes = rm.SearchRecipes(*query)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS\tTAGS\tDESCRIPTION")
	for _, recipe := range recipes {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", recipe.Name, len(recipe.Pipeline.Operations), strings.Join(recipe.Tags, ","), recipe.Description)
	}
	if err := w.Flush(); err != nil {
		reportError("recipes", err)
		return 1
	}
	return 0
}

func recipeName(fs *flag.FlagSet, name string) string {
	if name == "" && fs.NArg() > 0 {
		return fs.Arg(0)
	}
	return name
}

func runRecipeShow(args []string) int {
	fs := flag.NewFlagSet("recipe show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "recipe name")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	*name = recipeName(fs, *name)
	if *name == "" {
		fmt.Fprintln(os.Stderr, "-name is required")
		return 2
	}

	env, rm, err := openRecipes()
	if err != nil {
		reportError("recipes", err)
		return 1
	}
	defer env.close()

	recipe, ok := rm.GetRecipe(*name)
	if !ok {
		fmt.Fprintf(os.Stderr, "%v: %s\n", cipher.ErrRecipeNotFound, *name)
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recipe); err != nil {
		reportError("show", err)
		return 1
	}
	return 0
}

func runRecipeRun(args []string) int {
	fs := flag.NewFlagSet("recipe run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "recipe name")
	reverse := fs.Bool("reverse", false, "run the inverse pipeline")
	var iof ioFlags
	iof.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	*name = recipeName(fs, *name)
	if *name == "" {
		fmt.Fprintln(os.Stderr, "-name is required")
		return 2
	}
	if err := iof.validateOutFormat(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	env, rm, err := openRecipes()
	if err != nil {
		reportError("recipes", err)
		return 1
	}
	recipe, ok := rm.GetRecipe(*name)
	env.close()
	if !ok {
		fmt.Fprintf(os.Stderr, "%v: %s\n", cipher.ErrRecipeNotFound, *name)
		return 1
	}
	return executePipeline(recipe.Pipeline, *reverse, iof, recipe.Name)
}

func runRecipeDelete(args []string) int {
	fs := flag.NewFlagSet("recipe delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "recipe name")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	*name = recipeName(fs, *name)
	if *name == "" {
		fmt.Fprintln(os.Stderr, "-name is required")
		return 2
	}

	env, rm, err := openRecipes()
	if err != nil {
		reportError("recipes", err)
		return 1
	}
	defer env.close()

	if err := rm.DeleteRecipe(*name); err != nil {
		reportError("delete", err)
		return 1
	}
	if env.logger != nil {
		_ = env.logger.Emit(logging.AuditEvent{
			EventType: logging.EventRecipeDeleted,
			Decision:  logging.DecisionAllow,
			Metadata:  map[string]any{"recipe": *name},
		})
	}
	fmt.Fprintf(os.Stdout, "deleted recipe %s\n", *name)
	return 0
}

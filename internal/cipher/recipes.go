package cipher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrRecipeNotFound is returned when a recipe name is unknown.
var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeManager keeps named pipelines in memory and, when storePath is set,
// as one JSON file per recipe.
type RecipeManager struct {
	recipes   map[string]*Recipe
	storePath string
	mu        sync.RWMutex
}

// NewRecipeManager creates a recipe manager. An empty storePath keeps
// recipes in memory only.
func NewRecipeManager(storePath string) *RecipeManager {
	return &RecipeManager{
		recipes:   make(map[string]*Recipe),
		storePath: storePath,
	}
}

// SaveRecipe validates and stores a recipe. Saving an existing name keeps its ID and creation
// time.
func (rm *RecipeManager) SaveRecipe(recipe *Recipe) error {
	if recipe == nil || strings.TrimSpace(recipe.Name) == "" {
		return fmt.Errorf("recipe name cannot be empty")
	}
	if err := recipe.Pipeline.Validate(); err != nil {
		return fmt.Errorf("recipe %s: %w", recipe.Name, err)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if prev, ok := rm.recipes[recipe.Name]; ok {
		if recipe.ID == "" {
			recipe.ID = prev.ID
		}
		if recipe.CreatedAt == "" {
			recipe.CreatedAt = prev.CreatedAt
		}
	}
	if recipe.ID == "" {
		recipe.ID = ulid.Make().String()
	}
	if recipe.CreatedAt == "" {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now

	if rm.storePath != "" {
		if err := rm.persistRecipe(recipe); err != nil {
			return err
		}
	}
	rm.recipes[recipe.Name] = recipe
	return nil
}

// GetRecipe retrieves a recipe by name
func (rm *RecipeManager) GetRecipe(name string) (*Recipe, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipe, exists := rm.recipes[name]
	return recipe, exists
}

// ListRecipes returns all recipes sorted by name
func (rm *RecipeManager) ListRecipes() []*Recipe {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipes := make([]*Recipe, 0, len(rm.recipes))
	for _, recipe := range rm.recipes {
		recipes = append(recipes, recipe)
	}
	sortRecipes(recipes)
	return recipes
}

// DeleteRecipe removes a recipe and its file.
func (rm *RecipeManager) DeleteRecipe(name string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, ok := rm.recipes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrRecipeNotFound, name)
	}
	delete(rm.recipes, name)

	if rm.storePath != "" {
		if err := os.Remove(rm.recipePath(name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete recipe file: %w", err)
		}
	}
	return nil
}

// LoadRecipes reads every *.json file of the store path.
func (rm *RecipeManager) LoadRecipes() error {
	if rm.storePath == "" {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	entries, err := os.ReadDir(rm.storePath)
	if err != nil {
		return fmt.Errorf("failed to read recipes directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(rm.storePath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read recipe %s: %w", entry.Name(), err)
		}

		var recipe Recipe
		if err := json.Unmarshal(data, &recipe); err != nil {
			return fmt.Errorf("failed to parse recipe %s: %w", entry.Name(), err)
		}
		if recipe.Name == "" {
			return fmt.Errorf("recipe %s has no name", entry.Name())
		}
		rm.recipes[recipe.Name] = &recipe
	}

	return nil
}

func (rm *RecipeManager) recipePath(name string) string {
	return filepath.Join(rm.storePath, sanitizeFilename(name)+".json")
}

// persistRecipe writes the file through a temp file and a rename.
func (rm *RecipeManager) persistRecipe(recipe *Recipe) error {
	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	data, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize recipe: %w", err)
	}

	path := rm.recipePath(recipe.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// sanitizeFilename keeps letters, digits, '-' and '_'; spaces become '_'.
func sanitizeFilename(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "recipe"
	}
	return sb.String()
}

// SearchRecipes matches query case-insensitively against name, description
// and tags.
func (rm *RecipeManager) SearchRecipes(query string) []*Recipe {
	q := strings.ToLower(query)

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	results := make([]*Recipe, 0)
	for _, recipe := range rm.recipes {
		if matchesRecipe(recipe, q) {
			results = append(results, recipe)
		}
	}
	sortRecipes(results)
	return results
}

func matchesRecipe(recipe *Recipe, q string) bool {
	if strings.Contains(strings.ToLower(recipe.Name), q) || strings.Contains(strings.ToLower(recipe.Description), q) {
		return true
	}
	for _, tag := range recipe.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func sortRecipes(recipes []*Recipe) {
	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].Name < recipes[j].Name
	})
}

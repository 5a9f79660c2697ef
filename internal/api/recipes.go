package api

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/RowanDark/cipherkit/internal/cipher"
	"github.com/RowanDark/cipherkit/internal/logging"
)

// handleRecipes lists (GET, optional ?q= search) or saves (POST) recipes.
func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var recipes []*cipher.Recipe
		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			recipes = s.recipeManager.SearchRecipes(q)
		} else {
			recipes = s.recipeManager.ListRecipes()
		}
		list := make([]cipher.Recipe, len(recipes))
		for i, recipe := range recipes {
			list[i] = *recipe
		}
		s.writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: list})
	case http.MethodPost:
		s.handleRecipeSave(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRecipeSave(w http.ResponseWriter, r *http.Request) {
	var req RecipeSaveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	recipe := &cipher.Recipe{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Pipeline: cipher.Pipeline{
			Operations: req.Operations,
			Reversible: req.Reversible,
		},
	}
	if err := s.recipeManager.SaveRecipe(recipe); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.auditRecipe(r, logging.EventRecipeSaved, recipe.Name)
	s.writeJSON(w, http.StatusCreated, recipe)
}

// handleRecipeByName serves /api/v1/cipher/recipes/{name} (GET, DELETE) and
// /api/v1/cipher/recipes/{name}/run (POST).
func (s *Server) handleRecipeByName(w http.ResponseWriter, r *http.Request) {
	trim := strings.TrimPrefix(path.Clean(r.URL.Path), "/api/v1/cipher/recipes")
	trim = strings.TrimPrefix(trim, "/")
	if trim == "" {
		http.NotFound(w, r)
		return
	}
	parts := strings.Split(trim, "/")
	switch {
	case len(parts) == 2 && parts[1] == "run":
		s.handleRecipeRun(w, r, parts[0])
	case len(parts) == 1:
		s.handleRecipe(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request, name string) {
	switch r.Method {
	case http.MethodGet:
		recipe, ok := s.recipeManager.GetRecipe(name)
		if !ok {
			s.writeError(w, http.StatusNotFound, cipher.ErrRecipeNotFound)
			return
		}
		s.writeJSON(w, http.StatusOK, recipe)
	case http.MethodDelete:
		if err := s.recipeManager.DeleteRecipe(name); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, cipher.ErrRecipeNotFound) {
				status = http.StatusNotFound
			}
			s.writeError(w, status, err)
			return
		}
		s.auditRecipe(r, logging.EventRecipeDeleted, name)
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRecipeRun(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	recipe, ok := s.recipeManager.GetRecipe(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, cipher.ErrRecipeNotFound)
		return
	}
	var req RecipeRunRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	pipeline := recipe.Pipeline
	s.runPipeline(w, r, &pipeline, req.Reverse, req.Input, req.InputFormat, req.OutputFormat, recipe.Name)
}

func (s *Server) auditRecipe(r *http.Request, eventType logging.EventType, name string) {
	if s.logger == nil {
		return
	}
	_ = s.logger.Emit(logging.AuditEvent{
		RequestID: requestID(r.Context()),
		EventType: eventType,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"recipe": name},
	})
}

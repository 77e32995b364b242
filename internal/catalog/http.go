package catalog

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"menu-planner/internal/recipe"

	"github.com/golang-jwt/jwt/v5"
)

// recipesResponse is the top-level structure of the catalog API response.
type recipesResponse struct {
	Recipes []recipe.Recipe `json:"recipes"`
}

// httpClient talks to a remote catalog over its JSON API. Reads use the
// content key as a query parameter; writes sign a short-lived admin JWT.
type httpClient struct {
	httpClient *http.Client
	baseURL    string
	contentKey string
	adminKey   string
}

// NewHTTPClient creates a catalog client for a remote API.
func NewHTTPClient(baseURL, contentKey, adminKey string) Client {
	return &httpClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		contentKey: contentKey,
		adminKey:   adminKey,
	}
}

func (c *httpClient) RecipesByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	return c.fetch(ctx, url.Values{"category": {category}})
}

func (c *httpClient) AllRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	return c.fetch(ctx, url.Values{})
}

func (c *httpClient) fetch(ctx context.Context, params url.Values) ([]recipe.Recipe, error) {
	params.Set("key", c.contentKey)
	endpoint := fmt.Sprintf("%s/api/v1/recipes/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog api error: status %d", resp.StatusCode)
	}

	var response recipesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for i := range response.Recipes {
		response.Recipes[i].Normalize()
	}
	return response.Recipes, nil
}

// CreateRecipe pushes an imported recipe to the remote catalog.
func (c *httpClient) CreateRecipe(ctx context.Context, rec recipe.Recipe) (*recipe.Recipe, error) {
	token, err := c.createAdminToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create admin token: %w", err)
	}

	body, err := json.Marshal(map[string]interface{}{
		"recipes": []recipe.Recipe{rec},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipe: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/admin/recipes/", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Catalog "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("admin api error: status %d, body: %v", resp.StatusCode, errResp)
	}

	var response recipesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}
	if len(response.Recipes) == 0 {
		return nil, fmt.Errorf("no recipe returned from api")
	}

	created := response.Recipes[0]
	created.Normalize()
	return &created, nil
}

// createAdminToken generates a short-lived JWT for the admin API.
func (c *httpClient) createAdminToken() (string, error) {
	keyParts := strings.Split(c.adminKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid admin key format: expected id:secret")
	}

	id := keyParts[0]
	secret, err := hex.DecodeString(keyParts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"aud": "/v1/admin/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}

package config

import (
	"fmt"
	"os"

	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

var SupabaseClient *supa.Client

// InitSupabase initializes the shared Supabase client from SUPABASE_URL and
// SUPABASE_SERVICE_KEY.
func InitSupabase() error {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_SERVICE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set in environment variables")
	}

	client, err := supa.NewClient(supabaseURL, supabaseKey, nil)
	if err != nil {
		return fmt.Errorf("initializing Supabase client: %w", err)
	}

	SupabaseClient = client
	return nil
}

// NewPostgrestClient builds a PostgREST client against the same Supabase
// project, for the store layer used by background workers.
func NewPostgrestClient() (*postgrest.Client, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_SERVICE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set in environment variables")
	}

	client := postgrest.NewClient(supabaseURL+"/rest/v1", "", map[string]string{
		"apikey":        supabaseKey,
		"Authorization": fmt.Sprintf("Bearer %s", supabaseKey),
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("initializing PostgREST client: %w", client.ClientError)
	}
	return client, nil
}

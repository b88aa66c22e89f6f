package config

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
)

func TestGodotenvQuoting(t *testing.T) {
	content := "DASHMETRICS_API_URL='https://api.example.com/api?q=\"x\"'\nDASHMETRICS_THEME=dark # comment\n"
	tmpfile, err := os.CreateTemp("", ".env.test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(tmpfile.Name())
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `https://api.example.com/api?q="x"`
	if env["DASHMETRICS_API_URL"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["DASHMETRICS_API_URL"])
	}
	if env["DASHMETRICS_THEME"] != "dark" {
		t.Errorf("Expected dark, got %q", env["DASHMETRICS_THEME"])
	}
}

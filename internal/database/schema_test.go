package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Feature: grocery-tracker, Property 46: Pending migrations are executed
// Validates: Requirements 23.2
func TestMigrationFilesExist(t *testing.T) {
	migrationsDir := "../../migrations"

	// Check if migrations directory exists
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	// Expected migration files
	expectedMigrations := []string{
		"00001_create_users_table.sql",
		"00002_create_refresh_tokens_table.sql",
		"00003_create_supermarkets_table.sql",
		"00004_create_categories_table.sql",
		"00005_create_units_table.sql",
		"00006_create_generic_items_table.sql",
		"00007_create_brand_products_table.sql",
		"00008_create_templates_table.sql",
		"00009_create_template_items_table.sql",
		"00010_create_purchases_table.sql",
		"00011_create_purchase_lines_table.sql",
		"00012_create_price_observations_table.sql",
		"00013_create_updated_at_trigger.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	migrationsDir := "../../migrations"

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		// Check for goose Up directive
		if !strings.Contains(contentStr, "-- +goose Up") {
			t.Errorf("Migration file %s missing '-- +goose Up' directive", file.Name())
		}

		// Check for goose Down directive
		if !strings.Contains(contentStr, "-- +goose Down") {
			t.Errorf("Migration file %s missing '-- +goose Down' directive", file.Name())
		}

		// Check for StatementBegin/End
		if !strings.Contains(contentStr, "-- +goose StatementBegin") {
			t.Errorf("Migration file %s missing '-- +goose StatementBegin' directive", file.Name())
		}

		if !strings.Contains(contentStr, "-- +goose StatementEnd") {
			t.Errorf("Migration file %s missing '-- +goose StatementEnd' directive", file.Name())
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	migrationsDir := "../../migrations"

	expectedTables := map[string]string{
		"users":              "00001_create_users_table.sql",
		"refresh_tokens":     "00002_create_refresh_tokens_table.sql",
		"supermarkets":       "00003_create_supermarkets_table.sql",
		"categories":         "00004_create_categories_table.sql",
		"units":              "00005_create_units_table.sql",
		"generic_items":      "00006_create_generic_items_table.sql",
		"brand_products":     "00007_create_brand_products_table.sql",
		"templates":          "00008_create_templates_table.sql",
		"template_items":     "00009_create_template_items_table.sql",
		"purchases":          "00010_create_purchases_table.sql",
		"purchase_lines":     "00011_create_purchase_lines_table.sql",
		"price_observations": "00012_create_price_observations_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		path := filepath.Join(migrationsDir, migrationFile)
		content, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", migrationFile, err)
			continue
		}

		contentStr := string(content)

		// Check if migration creates the table
		createTableStmt := "CREATE TABLE IF NOT EXISTS " + tableName
		if !strings.Contains(contentStr, createTableStmt) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}

		// Check if migration has drop table in down section
		dropTableStmt := "DROP TABLE IF EXISTS " + tableName
		if !strings.Contains(contentStr, dropTableStmt) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestUsersTableHasRequiredColumns(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00001_create_users_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read users migration: %v", err)
	}

	contentStr := string(content)
	requiredColumns := []string{
		"id UUID PRIMARY KEY",
		"email VARCHAR",
		"password_hash VARCHAR",
		"first_name VARCHAR",
		"last_name VARCHAR",
		"created_at TIMESTAMP",
		"updated_at TIMESTAMP",
	}

	for _, column := range requiredColumns {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Users table missing required column definition: %s", column)
		}
	}
}

func TestGenericItemsTableHasRequiredColumns(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00006_create_generic_items_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read generic_items migration: %v", err)
	}

	contentStr := string(content)
	requiredColumns := []string{
		"id UUID PRIMARY KEY",
		"owner_user_id UUID",
		"canonical_name VARCHAR",
		"aliases JSONB",
		"primary_category_id UUID",
		"secondary_category_ids JSONB",
		"global_price DECIMAL",
		"currency_code VARCHAR",
		"last_price_update TIMESTAMP",
		"created_at TIMESTAMP",
		"updated_at TIMESTAMP",
	}

	for _, column := range requiredColumns {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Generic items table missing required column definition: %s", column)
		}
	}

	// Check for foreign key constraint
	if !strings.Contains(contentStr, "FOREIGN KEY (primary_category_id)") {
		t.Error("Generic items table missing foreign key constraint to categories")
	}
}

func TestPurchasesTableHasStatusConstraint(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00010_create_purchases_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read purchases migration: %v", err)
	}

	contentStr := string(content)

	// Check for status constraint with valid values
	requiredStatuses := []string{"draft", "completed"}
	for _, status := range requiredStatuses {
		if !strings.Contains(contentStr, status) {
			t.Errorf("Purchases table status constraint missing value: %s", status)
		}
	}
}

func TestPriceObservationsTableAllowsNullPrice(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00012_create_price_observations_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read price_observations migration: %v", err)
	}

	contentStr := string(content)

	// unit_price stays nullable so observations can record availability
	// without a price
	if strings.Contains(contentStr, "unit_price DECIMAL(12, 2) NOT NULL") {
		t.Error("Price observations unit_price must be nullable")
	}

	if !strings.Contains(contentStr, "unit_price DECIMAL(12, 2)") {
		t.Error("Price observations table missing unit_price column")
	}
}

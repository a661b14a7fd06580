// package formatter provides functions to export user and role data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lyrelabs/lyre/internal/services"
)

// UserExport bundles a set of user records with the filter metadata that
// produced them.
type UserExport struct {
	Title string
	Users []services.User
}

// RoleExport bundles a set of role records for export.
type RoleExport struct {
	Title string
	Roles []services.Role
}

// UsersToCSV converts a UserExport to CSV format with columns: ID, Username, Email, Name, Activated, Roles
func UsersToCSV(export *UserExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Username", "Email", "Name", "Activated", "Roles"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, user := range export.Users {
		record := []string{
			user.ID,
			user.Username,
			user.Email,
			user.Name,
			strconv.FormatBool(user.Activated),
			strings.Join(user.RoleCodes(), "|"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RolesToCSV converts a RoleExport to CSV format with columns: ID, Code, Description
func RolesToCSV(export *RoleExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Code", "Description"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, role := range export.Roles {
		if err := writer.Write([]string{role.ID, role.Code, role.Description}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// UsersToMarkdown converts a UserExport to Markdown format.
//
// avatars maps user IDs to relative image paths; when non-empty an Avatar
// column with inline image links is added to the table.
func UsersToMarkdown(export *UserExport, avatars map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	title := export.Title
	if title == "" {
		title = "Users"
	}

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", len(export.Users)))

	withAvatars := len(avatars) > 0
	if withAvatars {
		buf.WriteString("| Avatar | Username | Email | Name | Activated | Roles |\n")
		buf.WriteString("|--------|----------|-------|------|-----------|-------|\n")
	} else {
		buf.WriteString("| Username | Email | Name | Activated | Roles |\n")
		buf.WriteString("|----------|-------|------|-----------|-------|\n")
	}
	for _, user := range export.Users {
		if withAvatars {
			cell := ""
			if path, ok := avatars[user.ID]; ok {
				cell = fmt.Sprintf("![%s](%s)", user.Username, path)
			}
			buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %t | %s |\n",
				cell, user.Username, user.Email, user.Name, user.Activated, strings.Join(user.RoleCodes(), ", ")))
			continue
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %t | %s |\n",
			user.Username, user.Email, user.Name, user.Activated, strings.Join(user.RoleCodes(), ", ")))
	}

	return buf.Bytes(), nil
}

// UsersToText converts a UserExport to plain text format
func UsersToText(export *UserExport) ([]byte, error) {
	var buf bytes.Buffer

	title := export.Title
	if title == "" {
		title = "Users"
	}

	buf.WriteString(fmt.Sprintf("%s\n", title))
	buf.WriteString(fmt.Sprintf("Total: %d\n\n", len(export.Users)))

	for i, user := range export.Users {
		state := "active"
		if !user.Activated {
			state = "deactivated"
		}
		buf.WriteString(fmt.Sprintf("%d. %s <%s> [%s]\n", i+1, user.Name, user.Email, state))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates an indented JSON representation of the export metadata
func ToMetadataJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

// CSVExportResult contains the paths of files created by WriteUsersCSVExport
type CSVExportResult struct {
	RecordsFile  string
	MetadataFile string
}

// WriteUsersCSVExport exports users to CSV format with an accompanying metadata JSON file.
//
// Defaults to "users" as the base filename & creates {base}_users.csv and {base}_metadata.json
func WriteUsersCSVExport(export *UserExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "users"
	}

	csvData, err := UsersToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	recordsFile := baseFilepath + "_users.csv"
	if err := os.WriteFile(recordsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(map[string]any{"title": export.Title, "total": len(export.Users)})
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		RecordsFile:  recordsFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteUsersMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteUsersMarkdownExport exports users to Markdown format in a dedicated directory.
//
// Directory name defaults to "users". Creates {dir}/README.md and, when
// withAvatars is set, {dir}/avatars/{id}.jpg for each user whose avatar can
// be fetched. A failed avatar download is reported and skipped; the export
// continues.
func WriteUsersMarkdownExport(export *UserExport, outputDir string, withAvatars bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "users"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	avatars := map[string]string{}
	if withAvatars {
		for _, user := range export.Users {
			if user.URLAvatar == "" {
				continue
			}

			imageData, err := DownloadImage(user.URLAvatar)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to download avatar for %s: %v\n", user.Username, err)
				continue
			}

			if err := os.MkdirAll(fmt.Sprintf("%s/avatars", outputDir), 0755); err != nil {
				return nil, fmt.Errorf("failed to create avatars directory: %w", err)
			}

			relPath := fmt.Sprintf("avatars/%s.jpg", user.ID)
			avatarFile := fmt.Sprintf("%s/%s", outputDir, relPath)
			if err := os.WriteFile(avatarFile, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save avatar for %s: %v\n", user.Username, err)
				continue
			}

			avatars[user.ID] = relPath
			result.Files = append(result.Files, avatarFile)
		}
	}

	mdData, err := UsersToMarkdown(export, avatars)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteUsersTextExport exports users to plain text format.
//
// Defaults to "users.txt" as the filename.
func WriteUsersTextExport(export *UserExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = "users.txt"
	}

	textData, err := UsersToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// WriteRolesCSVExport exports roles to a CSV file.
//
// Defaults to "roles.csv" as the filename.
func WriteRolesCSVExport(export *RoleExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = "roles.csv"
	}

	csvData, err := RolesToCSV(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}

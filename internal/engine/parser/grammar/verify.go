package grammar

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type VerificationIssue struct {
	Language     string
	ArtifactPath string
	ExpectedHash string
	ActualHash   string
	Reason       string
}

func (i VerificationIssue) String() string {
	if i.ArtifactPath == "" {
		return fmt.Sprintf("%s: %s", i.Language, i.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", i.Language, i.ArtifactPath, i.Reason)
}

func VerifyGrammarArtifacts(baseDir string, manifest GrammarManifest) ([]VerificationIssue, error) {
	if err := checkBaseDir(baseDir); err != nil {
		return nil, err
	}

	issues := make([]VerificationIssue, 0)
	for _, artifact := range manifest.Artifacts {
		issues = append(issues, verifyArtifact(baseDir, manifest, artifact)...)
	}
	sortIssues(issues)
	return issues, nil
}

// VerifyLanguage checks the single artifact registered for language.
func VerifyLanguage(baseDir string, manifest GrammarManifest, language string) ([]VerificationIssue, error) {
	if err := checkBaseDir(baseDir); err != nil {
		return nil, err
	}
	artifact, ok := manifest.Artifact(language)
	if !ok {
		return []VerificationIssue{{Language: language, Reason: "language missing from manifest"}}, nil
	}
	issues := verifyArtifact(baseDir, manifest, artifact)
	sortIssues(issues)
	return issues, nil
}

func checkBaseDir(baseDir string) error {
	if strings.TrimSpace(baseDir) == "" {
		return fmt.Errorf("baseDir must not be empty")
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("grammar base path is not a directory: %s", baseDir)
	}
	return nil
}

func verifyArtifact(baseDir string, manifest GrammarManifest, artifact GrammarArtifact) []VerificationIssue {
	var issues []VerificationIssue
	allowed := false
	for _, version := range manifest.AllowedABIVersions {
		if version == artifact.ABIVersion {
			allowed = true
			break
		}
	}
	if !allowed {
		issues = append(issues, VerificationIssue{
			Language: artifact.Language,
			Reason:   fmt.Sprintf("unsupported ABI version %d", artifact.ABIVersion),
		})
	}
	return append(issues, verifyArtifactHash(baseDir, artifact.Language, artifact.SharedObjectPath, artifact.SharedObjectHash)...)
}

func sortIssues(issues []VerificationIssue) {
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Language != issues[j].Language {
			return issues[i].Language < issues[j].Language
		}
		if issues[i].ArtifactPath != issues[j].ArtifactPath {
			return issues[i].ArtifactPath < issues[j].ArtifactPath
		}
		return issues[i].Reason < issues[j].Reason
	})
}

func verifyArtifactHash(baseDir, language, relPath, expectedHash string) []VerificationIssue {
	fullPath := filepath.Join(baseDir, relPath)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return []VerificationIssue{{
			Language:     language,
			ArtifactPath: relPath,
			ExpectedHash: expectedHash,
			ActualHash:   "<missing>",
			Reason:       "artifact missing or unreadable",
		}}
	}

	actual := fmt.Sprintf("%x", sha256.Sum256(data))
	if actual == expectedHash {
		return nil
	}
	return []VerificationIssue{{
		Language:     language,
		ArtifactPath: relPath,
		ExpectedHash: expectedHash,
		ActualHash:   actual,
		Reason:       "checksum mismatch",
	}}
}

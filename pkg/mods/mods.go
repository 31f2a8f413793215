// Convoy CLI
// Copyright (c) 2026 The Convoy Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Convoy CLI.
//
// Convoy CLI is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Convoy CLI is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Convoy CLI.  If not, see <http://www.gnu.org/licenses/>.

// Package mods synchronizes multiplayer mod files and helper binaries
// against the mod distribution servers.
package mods

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/ConvoyProject/convoy-cli/pkg/downloads"
	"github.com/rs/zerolog/log"
)

// Endpoints, overridable in tests.
var (
	fileListURL   = config.ModFileListURL
	versionAPIURL = config.ModVersionAPIURL
	downloadHost  = config.ModDownloadHost
	failoverHost  = config.ModDownloadHostAlt
	binaryHost    = config.GitHubRawHost
)

type fileList struct {
	Files []fileEntry `json:"Files"`
}

type fileEntry struct {
	MD5      string `json:"Md5"`
	FilePath string `json:"FilePath"`
}

// Update downloads missing or outdated mod files into modDir. Local
// files are compared by md5 against the server's file list; matching
// files are left alone. The failover host is tried when the primary
// download fails.
func Update(ctx context.Context, modDir string) error {
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		return fmt.Errorf("create mod directory: %w", err)
	}

	list, err := fetchFileList(ctx)
	if err != nil {
		return err
	}
	if len(list.Files) == 0 {
		return fmt.Errorf("mod file list is empty")
	}

	var stale []downloads.FileSpec
	for _, entry := range list.Files {
		local := filepath.Join(modDir, strings.TrimPrefix(entry.FilePath, "/"))
		ok, hashErr := downloads.CheckHash(local, entry.MD5)
		if hashErr == nil && ok {
			continue
		}
		stale = append(stale, downloads.FileSpec{
			Path: "/files" + entry.FilePath,
			Dest: local,
			MD5:  entry.MD5,
		})
	}

	if len(stale) == 0 {
		log.Debug().Msg("no mod files to download")
		return nil
	}
	log.Info().Int("count", len(stale)).Msg("downloading mod files")

	if err := downloads.Fetch(ctx, downloadHost, stale); err != nil {
		log.Warn().Err(err).Msg("primary download host failed, trying failover")
		if altErr := downloads.Fetch(ctx, failoverHost, stale); altErr != nil {
			return fmt.Errorf("download mod files: %w", altErr)
		}
	}
	return nil
}

func fetchFileList(ctx context.Context) (*fileList, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileListURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build file list request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch mod file list: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch mod file list: status %s", resp.Status)
	}

	var list fileList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("parse mod file list: %w", err)
	}
	return &list, nil
}

// SupportedVersions returns the mod-compatible game versions reported
// by the mod project's web API, keyed by game name.
func SupportedVersions(ctx context.Context) (map[string]string, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionAPIURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build version request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch supported versions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch supported versions: status %s", resp.Status)
	}

	var payload struct {
		ETS2 string `json:"supported_game_version"`
		ATS  string `json:"supported_ats_game_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse supported versions: %w", err)
	}
	if payload.ETS2 == "" || payload.ATS == "" {
		return nil, fmt.Errorf("version API response missing supported game versions")
	}

	// version strings carry an "s" marker for some releases
	return map[string]string{
		config.GameETS2: strings.ReplaceAll(payload.ETS2, "s", ""),
		config.GameATS:  strings.ReplaceAll(payload.ATS, "s", ""),
	}, nil
}

// DetermineBranch resolves the Steam beta branch to install. An
// explicit beta name wins; otherwise, when downgrading for mod
// compatibility, the API's supported version maps to a
// "temporary_X_Y" branch. The default is the public branch.
func DetermineBranch(ctx context.Context, game, beta string, downgrade bool) string {
	if beta != "" {
		return beta
	}
	if downgrade {
		versions, err := SupportedVersions(ctx)
		if err == nil {
			parts := strings.Split(versions[game], ".")
			if len(parts) >= 2 {
				return fmt.Sprintf("temporary_%s_%s", parts[0], parts[1])
			}
		}
		log.Warn().Err(err).Msg("could not determine downgrade branch, using public")
	}
	return "public"
}

// EnsureIPCBridge verifies the presence bridge executable is on disk
// with the expected digest, downloading it when missing or stale, and
// returns its path.
func EnsureIPCBridge(ctx context.Context) (string, error) {
	return ensureBinary(ctx, config.IPCBridgeFile(), config.IPCBridgePath, config.IPCBridgeMD5)
}

// EnsureD3DCompiler verifies the native d3dcompiler_47.dll is on disk
// with the expected digest, downloading it when missing or stale, and
// returns its path.
func EnsureD3DCompiler(ctx context.Context) (string, error) {
	return ensureBinary(ctx, config.D3DCompilerFile(), config.D3DCompilerPath, config.D3DCompilerMD5)
}

func ensureBinary(ctx context.Context, dest, urlPath, md5sum string) (string, error) {
	if ok, err := downloads.CheckHash(dest, md5sum); err == nil && ok {
		log.Debug().Str("path", dest).Msg("binary present with matching digest")
		return dest, nil
	}
	err := downloads.Fetch(ctx, binaryHost, []downloads.FileSpec{{
		Path: urlPath,
		Dest: dest,
		MD5:  md5sum,
	}})
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", filepath.Base(dest), err)
	}
	return dest, nil
}

package main

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkbackup/pkg/config"
)

func testPrompter(input string, secrets ...string) (*prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &prompter{
		in:          bufio.NewReader(strings.NewReader(input)),
		out:         out,
		interactive: true,
		readSecret: func() (string, error) {
			if len(secrets) == 0 {
				return "", errors.New("no more secrets")
			}
			s := secrets[0]
			secrets = secrets[1:]
			return s, nil
		},
	}, out
}

func TestParseCount(t *testing.T) {
	n, err := parseCount(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = parseCount("seven")
	assert.Error(t, err)
	_, err = parseCount("0")
	assert.Error(t, err)
}

func TestPrompterLine(t *testing.T) {
	p, out := testPrompter("  12345 \n")
	v, err := p.Line("VK user id")
	require.NoError(t, err)
	assert.Equal(t, "12345", v)
	assert.Equal(t, "VK user id: ", out.String())
}

func TestPrompterLineWithoutNewline(t *testing.T) {
	p, _ := testPrompter("42")
	n, err := p.Count("Number of photos")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestPrompterNotInteractive(t *testing.T) {
	p, _ := testPrompter("1\n")
	p.interactive = false

	_, err := p.Line("VK user id")
	assert.ErrorIs(t, err, errNotInteractive)
	assert.False(t, p.Confirm("Replace?"))
}

func TestPrompterConfirm(t *testing.T) {
	p, _ := testPrompter("Yes\n\n")
	assert.True(t, p.Confirm("Replace?"))
	assert.False(t, p.Confirm("Replace?"))
}

func TestBuildRequestPromptsForMissingValues(t *testing.T) {
	userID, photoCount, allAlbums, directMode = "", 0, false, false
	t.Cleanup(func() { userID, photoCount, allAlbums, directMode = "", 0, false, false })

	p, _ := testPrompter("552934290\n5\n")
	req, err := buildRequest(p)
	require.NoError(t, err)
	assert.Equal(t, "552934290", req.OwnerID)
	assert.Equal(t, 5, req.Count)
}

func TestBuildRequestAllAlbumsSkipsCount(t *testing.T) {
	userID, photoCount, allAlbums, directMode = "1", 0, true, true
	t.Cleanup(func() { userID, photoCount, allAlbums, directMode = "", 0, false, false })

	p, _ := testPrompter("")
	p.interactive = false
	req, err := buildRequest(p)
	require.NoError(t, err)
	assert.True(t, req.AllAlbums)
	assert.True(t, req.Direct)
}

func TestPromptTokensOnlyForEnabledServices(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VK.Token = "already-set"
	cfg.GDrive.Enabled = false

	p, _ := testPrompter("", "yd-secret")
	require.NoError(t, promptTokens(p, cfg))

	assert.Equal(t, "already-set", cfg.VK.Token)
	assert.Equal(t, "yd-secret", cfg.Yandex.Token)
	assert.Empty(t, cfg.GDrive.Token)
}

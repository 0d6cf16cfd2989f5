package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, kctx
}

// TestPurpose: Validates that company update only carries the fields given on the command line.
// Scope: Unit Test
// Expected: Omitted flags stay nil; an explicit empty email is a non-nil empty string.
// Test Case ID: CLI-01
func TestCLI_CompanyUpdate_PartialFlags(t *testing.T) {
	cli, kctx := parse(t, "company", "update", "42", "--name", "Acme Two", "--email", "")
	assert.Equal(t, "company update <id>", kctx.Command())

	upd := cli.Company.Update.update()
	assert.Equal(t, int64(42), cli.Company.Update.ID)
	require.NotNil(t, upd.Name)
	assert.Equal(t, "Acme Two", *upd.Name)
	require.NotNil(t, upd.ContactEmail)
	assert.Empty(t, *upd.ContactEmail)
	assert.Nil(t, upd.SubscriptionTier)
}

// TestPurpose: Validates registration defaults and password sourcing from the environment.
// Scope: Unit Test
// Security: Passwords can be supplied without appearing in the process arguments.
// Expected: Tier and role default to basic and superUser; the password is read from COMPANY_PASSWORD.
// Test Case ID: CLI-02
func TestCLI_CompanyRegister_Defaults(t *testing.T) {
	t.Setenv("COMPANY_PASSWORD", "correct-horse")

	cli, _ := parse(t, "company", "register", "Acme", "--email", "ops@acme.test")

	reg := cli.Company.Register
	assert.Equal(t, "Acme", reg.Name)
	assert.Equal(t, "ops@acme.test", reg.Email)
	assert.Equal(t, "correct-horse", reg.Password)
	assert.Equal(t, "basic", reg.Tier)
	assert.Equal(t, "superUser", reg.Role)
}

// TestPurpose: Validates that destructive commands refuse to run without confirmation.
// Scope: Unit Test
// Security: No connection is opened and nothing is deleted when --yes is missing.
// Expected: Each command returns errConfirmationRequired.
// Test Case ID: CLI-03
func TestCLI_DestructiveCommandsRequireConfirmation(t *testing.T) {
	ctx := context.Background()
	globals := &Globals{Stdout: &bytes.Buffer{}}

	assert.ErrorIs(t, (&CompanyDeleteCmd{ID: 1}).Run(ctx, globals), errConfirmationRequired)
	assert.ErrorIs(t, (&UserDeleteCmd{ID: 1}).Run(ctx, globals), errConfirmationRequired)
	assert.ErrorIs(t, (&ProjectDeleteCmd{ID: 1}).Run(ctx, globals), errConfirmationRequired)
	assert.ErrorIs(t, (&MigrateCmd{Down: true}).Run(ctx, globals), errConfirmationRequired)
}

// TestPurpose: Validates that company show needs a lookup key.
// Scope: Unit Test
// Expected: Without an ID or --email the command fails before connecting.
// Test Case ID: CLI-04
func TestCLI_CompanyShow_RequiresKey(t *testing.T) {
	err := (&CompanyShowCmd{}).Run(context.Background(), &Globals{Stdout: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email")
}

// TestPurpose: Validates list paging flags.
// Scope: Unit Test
// Expected: Limit defaults to 50 and offset to 0; explicit values are parsed.
// Test Case ID: CLI-05
func TestCLI_CompanyList_Paging(t *testing.T) {
	cli, _ := parse(t, "company", "list")
	assert.Equal(t, 50, cli.Company.List.Limit)
	assert.Equal(t, 0, cli.Company.List.Offset)

	cli, _ = parse(t, "company", "list", "--limit", "10", "--offset", "20")
	assert.Equal(t, 10, cli.Company.List.Limit)
	assert.Equal(t, 20, cli.Company.List.Offset)
}

// TestPurpose: Validates the JSON written for command results.
// Scope: Unit Test
// Expected: Output is indented JSON terminated by a newline.
// Test Case ID: CLI-06
func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]any{"id": 7, "deleted": true}))
	assert.Equal(t, "{\n  \"deleted\": true,\n  \"id\": 7\n}\n", buf.String())
}

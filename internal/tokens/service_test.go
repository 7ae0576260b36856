package tokens

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/internal/networks"
	"github.com/blocodev/wallet-hub/internal/wallets"
	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
	pkgerrors "github.com/blocodev/wallet-hub/pkg/errors"
)

func setupTokensTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	walletTable := `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  balance NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`
	networkTable := `
CREATE TABLE IF NOT EXISTS networks (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  chain_id INTEGER NOT NULL UNIQUE,
  currency TEXT NOT NULL,
  created_at DATETIME
);`
	tokenTable := `
CREATE TABLE IF NOT EXISTS tokens (
  id TEXT PRIMARY KEY,
  symbol TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  decimals INTEGER NOT NULL DEFAULT 18,
  contract_address TEXT,
  network_ids TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME
);`
	holdingTable := `
CREATE TABLE IF NOT EXISTS wallet_tokens (
  id TEXT PRIMARY KEY,
  wallet_id TEXT NOT NULL,
  token_id TEXT NOT NULL,
  balance NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  UNIQUE (wallet_id, token_id)
);`
	for _, schema := range []string{walletTable, networkTable, tokenTable, holdingTable} {
		require.NoError(t, db.Exec(schema).Error)
	}
	for _, table := range []string{"wallets", "networks", "tokens", "wallet_tokens"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Repo:        NewRepository(db),
		WalletRepo:  wallets.NewRepository(db),
		NetworkRepo: networks.NewRepository(db),
	})
	require.NoError(t, err)
	return service
}

func seedNetwork(t *testing.T, db *gorm.DB, chainID int64) uuid.UUID {
	t.Helper()
	network := models.Network{ID: uuid.New(), Name: "Chain", ChainID: chainID, Currency: "ETH"}
	require.NoError(t, db.Create(&network).Error)
	return network.ID
}

func seedWallet(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	wallet := models.Wallet{ID: uuid.New(), UserID: uuid.New(), Status: enums.WalletStatusActive}
	require.NoError(t, db.Create(&wallet).Error)
	return wallet.ID
}

func TestRegister(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)
	ctx := context.Background()
	networkID := seedNetwork(t, db, 1)

	token, err := service.Register(ctx, RegisterTokenInput{
		Symbol:     "USDC",
		Name:       "USD Coin",
		Decimals:   6,
		NetworkIDs: []uuid.UUID{networkID},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, token.Decimals)
	assert.True(t, token.NetworkIDs.Contains(networkID))

	fetched, err := service.Get(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, "USDC", fetched.Symbol)
	assert.True(t, fetched.NetworkIDs.Contains(networkID))
}

func TestRegister_DefaultDecimals(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)

	token, err := service.Register(context.Background(), RegisterTokenInput{Symbol: "WETH", Name: "Wrapped Ether"})
	require.NoError(t, err)
	assert.Equal(t, 18, token.Decimals)
}

func TestRegister_DuplicateSymbol(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterTokenInput{Symbol: "DAI", Name: "Dai"})
	require.NoError(t, err)

	_, err = service.Register(ctx, RegisterTokenInput{Symbol: "DAI", Name: "Dai Again"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegister_UnknownNetwork(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)

	_, err := service.Register(context.Background(), RegisterTokenInput{
		Symbol:     "LINK",
		Name:       "Chainlink",
		NetworkIDs: []uuid.UUID{uuid.New()},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestEnableOnNetwork(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)
	ctx := context.Background()
	first := seedNetwork(t, db, 1)
	second := seedNetwork(t, db, 137)

	token, err := service.Register(ctx, RegisterTokenInput{Symbol: "USDT", Name: "Tether", NetworkIDs: []uuid.UUID{first}})
	require.NoError(t, err)

	updated, err := service.EnableOnNetwork(ctx, token.ID, second)
	require.NoError(t, err)
	assert.True(t, updated.NetworkIDs.Contains(first))
	assert.True(t, updated.NetworkIDs.Contains(second))

	// Enabling again is a no-op.
	again, err := service.EnableOnNetwork(ctx, token.ID, second)
	require.NoError(t, err)
	assert.Len(t, again.NetworkIDs, 2)

	fetched, err := service.Get(ctx, token.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.NetworkIDs, 2)
}

func TestLink(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)
	ctx := context.Background()
	networkID := seedNetwork(t, db, 1)
	walletID := seedWallet(t, db)

	token, err := service.Register(ctx, RegisterTokenInput{Symbol: "USDC", Name: "USD Coin", NetworkIDs: []uuid.UUID{networkID}})
	require.NoError(t, err)

	holding, err := service.Link(ctx, LinkTokenInput{WalletID: walletID, TokenID: token.ID, NetworkID: networkID})
	require.NoError(t, err)
	assert.Equal(t, walletID, holding.WalletID)
	assert.True(t, holding.Balance.IsZero())

	holdings, err := service.ListHoldings(ctx, walletID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, token.ID, holdings[0].TokenID)
}

func TestLink_UnsupportedNetwork(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)
	ctx := context.Background()
	supported := seedNetwork(t, db, 1)
	other := seedNetwork(t, db, 137)
	walletID := seedWallet(t, db)

	token, err := service.Register(ctx, RegisterTokenInput{Symbol: "ARB", Name: "Arbitrum", NetworkIDs: []uuid.UUID{supported}})
	require.NoError(t, err)

	_, err = service.Link(ctx, LinkTokenInput{WalletID: walletID, TokenID: token.ID, NetworkID: other})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestLink_Duplicate(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)
	ctx := context.Background()
	networkID := seedNetwork(t, db, 1)
	walletID := seedWallet(t, db)

	token, err := service.Register(ctx, RegisterTokenInput{Symbol: "OP", Name: "Optimism", NetworkIDs: []uuid.UUID{networkID}})
	require.NoError(t, err)

	input := LinkTokenInput{WalletID: walletID, TokenID: token.ID, NetworkID: networkID}
	_, err = service.Link(ctx, input)
	require.NoError(t, err)

	_, err = service.Link(ctx, input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestUnlink(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)
	ctx := context.Background()
	networkID := seedNetwork(t, db, 1)
	walletID := seedWallet(t, db)

	token, err := service.Register(ctx, RegisterTokenInput{Symbol: "UNI", Name: "Uniswap", NetworkIDs: []uuid.UUID{networkID}})
	require.NoError(t, err)
	_, err = service.Link(ctx, LinkTokenInput{WalletID: walletID, TokenID: token.ID, NetworkID: networkID})
	require.NoError(t, err)

	require.NoError(t, service.Unlink(ctx, walletID, token.ID))

	holdings, err := service.ListHoldings(ctx, walletID)
	require.NoError(t, err)
	assert.Empty(t, holdings)

	err = service.Unlink(ctx, walletID, token.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRegister_NoNetworksRoundTrips(t *testing.T) {
	db := setupTokensTestDB(t)
	service := newTestService(t, db)
	ctx := context.Background()

	token, err := service.Register(ctx, RegisterTokenInput{Symbol: "UNI", Name: "Uniswap"})
	require.NoError(t, err)
	assert.Empty(t, token.NetworkIDs)

	fetched, err := service.Get(ctx, token.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.NetworkIDs)
}

package verify

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nathanTypo/lottery-pc/internal/artifacts"
)

// ArtifactVerifier verifies contracts by name, taking source and compiler settings
// from their build info.
type ArtifactVerifier struct {
	client *Client
	loader *artifacts.Loader
}

// NewArtifactVerifier creates a verifier backed by an artifacts directory.
func NewArtifactVerifier(client *Client, loader *artifacts.Loader) *ArtifactVerifier {
	return &ArtifactVerifier{client: client, loader: loader}
}

// Verify verifies the deployed contract at address with the given constructor arguments.
func (v *ArtifactVerifier) Verify(ctx context.Context, chainID int64, contract string, address common.Address, args ...any) error {
	art, err := v.loader.Load(contract)
	if err != nil {
		return err
	}
	encoded, err := art.EncodeConstructorArgs(args...)
	if err != nil {
		return err
	}
	return v.VerifyEncoded(ctx, chainID, contract, address, encoded)
}

// VerifyEncoded is Verify for constructor arguments that are already ABI encoded,
// as kept in deployment records.
func (v *ArtifactVerifier) VerifyEncoded(ctx context.Context, chainID int64, contract string, address common.Address, encodedArgs []byte) error {
	art, err := v.loader.Load(contract)
	if err != nil {
		return err
	}
	bi, err := v.loader.BuildInfo(art)
	if err != nil {
		return fmt.Errorf("load build info for %s: %w", contract, err)
	}

	name := art.ContractName
	if art.SourceName != "" {
		name = art.SourceName + ":" + art.ContractName
	}

	return v.client.Verify(ctx, Request{
		ChainID:           chainID,
		Address:           address,
		ContractName:      name,
		CompilerVersion:   bi.SolcLongVersion,
		StandardJSONInput: bi.Input,
		ConstructorArgs:   encodedArgs,
	})
}

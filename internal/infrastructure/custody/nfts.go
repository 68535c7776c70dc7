package custody

import (
	"context"
	"math/big"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/errcodes"
)

func (v *Vault) MintNFT(contract, to value.Address, tokenID *big.Int) error {
	if value.IsZero(contract) {
		return domain.ErrInvalidNFTContract
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.nfts[contract] == nil {
		v.nfts[contract] = make(map[string]*nft)
	}
	key := tokenID.String()
	if _, ok := v.nfts[contract][key]; ok {
		return domain.NewError(errcodes.NotTokenOwner, "token already minted")
	}
	v.nfts[contract][key] = &nft{owner: to}
	return nil
}

// ApproveNFT разрешает operator перевести токен; вызывать может владелец.
func (v *Vault) ApproveNFT(contract, caller, operator value.Address, tokenID *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, err := v.lookup(contract, tokenID)
	if err != nil {
		return err
	}
	if n.owner != caller && !v.operators[contract][n.owner][caller] {
		return domain.ErrNotTokenOwner
	}
	n.approved = operator
	return nil
}

func (v *Vault) SetApprovalForAll(contract, owner, operator value.Address, approved bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.operators[contract] == nil {
		v.operators[contract] = make(map[value.Address]map[value.Address]bool)
	}
	if v.operators[contract][owner] == nil {
		v.operators[contract][owner] = make(map[value.Address]bool)
	}
	v.operators[contract][owner][operator] = approved
}

func (v *Vault) OwnerOf(_ context.Context, contract value.Address, tokenID *big.Int) (value.Address, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, err := v.lookup(contract, tokenID)
	if err != nil {
		return value.Address{}, err
	}
	return n.owner, nil
}

// IsApproved сообщает, может ли operator перевести токен от имени владельца.
func (v *Vault) IsApproved(_ context.Context, contract value.Address, tokenID *big.Int, operator value.Address) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, err := v.lookup(contract, tokenID)
	if err != nil {
		return false, err
	}
	return v.authorized(contract, n, operator), nil
}

func (v *Vault) TransferNFT(
	ctx context.Context,
	contract value.Address,
	operator, from, to value.Address,
	tokenID *big.Int,
) error {
	if err := v.acquire(ctx); err != nil {
		return err
	}
	defer v.mu.Unlock()

	n, err := v.lookup(contract, tokenID)
	if err != nil {
		return err
	}
	if n.owner != from || !v.authorized(contract, n, operator) {
		return domain.ErrNotTokenOwner
	}
	if value.IsZero(to) {
		return domain.ErrInvalidRecipient
	}

	n.owner = to
	n.approved = value.Address{}
	return nil
}

func (v *Vault) authorized(contract value.Address, n *nft, operator value.Address) bool {
	return operator == n.owner || operator == n.approved || v.operators[contract][n.owner][operator]
}

func (v *Vault) lookup(contract value.Address, tokenID *big.Int) (*nft, error) {
	if tokenID == nil {
		return nil, domain.ErrNFTNotFound
	}
	n, ok := v.nfts[contract][tokenID.String()]
	if !ok {
		return nil, domain.ErrNFTNotFound
	}
	return n, nil
}

package auction

import (
	"context"
	"math/big"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/logx"
)

// WithdrawFees списывает накопленные комиссии и переводит их получателю.
func (r *Registry) WithdrawFees(
	ctx context.Context,
	caller value.Address,
	currency value.Currency,
	recipient value.Address,
	amount *big.Int,
) error {
	err := r.mutate(ctx, "withdraw-fees", func(ctx context.Context, tx Tx, op *operation) error {
		meta, err := r.meta(ctx, tx)
		if err != nil {
			return err
		}

		if caller != meta.Admin {
			return domain.ErrOnlyAdmin
		}
		if value.IsZero(recipient) {
			return domain.ErrInvalidRecipient
		}
		if amount == nil || amount.Sign() <= 0 {
			return domain.ErrInvalidWithdrawal
		}

		balance, err := tx.FeeBalance(ctx, currency)
		if err != nil {
			return err
		}
		if amount.Cmp(balance) > 0 {
			return domain.ErrInsufficientFees
		}

		if err := tx.SetFeeBalance(ctx, currency, new(big.Int).Sub(balance, amount)); err != nil {
			return err
		}

		ev := r.newEvent(entity.EventFeeWithdrawn)
		ev.Actor = caller
		ev.Currency = currency
		ev.Recipient = recipient
		ev.Amount = value.Clone(amount)
		op.emit(ev)

		return r.pay(ctx, op, currency, recipient, amount)
	})
	if err != nil {
		return err
	}

	logger(ctx).Info("fees withdrawn",
		logx.FieldCurrency, value.CurrencyLabel(currency),
		"recipient", recipient.Hex(),
		"amount", amount.String(),
	)

	return nil
}

// SetFeePolicy заменяет политику комиссии; nil отключает комиссию.
func (r *Registry) SetFeePolicy(ctx context.Context, caller value.Address, policy FeePolicy) error {
	return r.mutate(ctx, "set-fee-policy", func(ctx context.Context, tx Tx, op *operation) error {
		meta, err := r.meta(ctx, tx)
		if err != nil {
			return err
		}

		if caller != meta.Admin {
			return domain.ErrOnlyAdmin
		}

		old := meta.FeePolicy
		meta.FeePolicy = ""
		if policy != nil {
			r.registerPolicy(policy)
			meta.FeePolicy = policy.Name()
		}

		if err := tx.SetMeta(ctx, meta); err != nil {
			return err
		}

		ev := r.newEvent(entity.EventFeePolicyUpdated)
		ev.Actor = caller
		ev.Old = old
		ev.New = meta.FeePolicy
		op.emit(ev)

		logger(ctx).Info("fee policy updated", "old", old, "new", meta.FeePolicy)

		return nil
	})
}

// Package calculator holds the pure ledger computations: per-user balances,
// settlement suggestions and draft share expressions.
package calculator

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitroom/internal/models"
)

// settleEpsilon is the amount below which a remaining debt is treated as floating point noise.
const settleEpsilon = 0.01

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount float64
}

// ComputeBalances computes each user's net balance over a room's transactions.
//
// Algorithm:
// - Every declared user starts at 0
// - For each transaction: each participant's share is added to that participant
// - The transaction total is subtracted from the payer
//
// Names that appear in transactions but not in users are included as well;
// membership is enforced when transactions are recorded, not here.
// Sums are kept as decimals, so the result does not depend on transaction order.
func ComputeBalances(users []string, transactions []models.Transaction) map[string]float64 {
	sums := make(map[string]decimal.Decimal, len(users))
	for _, name := range users {
		sums[name] = decimal.Zero
	}

	for _, tx := range transactions {
		total := decimal.Zero
		for name, share := range tx.Participants {
			d := decimal.NewFromFloat(share)
			sums[name] = sums[name].Add(d)
			total = total.Add(d)
		}
		sums[tx.Payer] = sums[tx.Payer].Sub(total)
	}

	balances := make(map[string]float64, len(sums))
	for name, sum := range sums {
		balances[name] = sum.InexactFloat64()
	}
	return balances
}

// SuggestSettlements proposes payments that clear the given balances.
// Users with a positive balance owe money; users with a negative balance are owed.
//
// Greedy algorithm: match the largest debts with the largest credits.
// The result is deterministic for a given input.
func SuggestSettlements(balances map[string]float64) []DebtEdge {
	type party struct {
		name   string
		amount float64
	}

	var debtors, creditors []party
	for name, bal := range balances {
		if bal > settleEpsilon {
			debtors = append(debtors, party{name, bal})
		} else if bal < -settleEpsilon {
			creditors = append(creditors, party{name, -bal}) // Make positive
		}
	}

	byAmount := func(a, b party) int {
		if c := cmp.Compare(b.amount, a.amount); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	}
	slices.SortFunc(debtors, byAmount)
	slices.SortFunc(creditors, byAmount)

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := min(debtor.amount, creditor.amount)
		if amount > settleEpsilon {
			edges = append(edges, DebtEdge{
				From:   debtor.name,
				To:     creditor.name,
				Amount: amount,
			})
		}

		debtor.amount -= amount
		creditor.amount -= amount

		// Move to next debtor/creditor if fully settled
		if debtor.amount < settleEpsilon {
			i++
		}
		if creditor.amount < settleEpsilon {
			j++
		}
	}

	return edges
}

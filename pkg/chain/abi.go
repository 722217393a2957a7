package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments covering the read-only surface this client
// touches. Kept inline so the package carries no asset files.

const proxyABIJSON = `[
{"type":"function","name":"betokenFundAddress","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]}
]`

const fundABIJSON = `[
{"type":"function","name":"cycleNumber","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"cyclePhase","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"startTimeOfCyclePhase","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"totalFundsInDAI","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"commissionRate","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"assetFeeRate","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"controlTokenAddr","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
{"type":"function","name":"shareTokenAddr","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
{"type":"function","name":"phaseLengths","stateMutability":"view","inputs":[{"type":"uint256"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"totalCommissionOfCycle","stateMutability":"view","inputs":[{"type":"uint256"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"managePhaseEndBlock","stateMutability":"view","inputs":[{"type":"uint256"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"lastCommissionRedemption","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"baseRiskStakeFallback","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"investmentsCount","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"compoundOrdersCount","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"commissionBalanceOf","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"name":"_commission","type":"uint256"},{"name":"_penalty","type":"uint256"}]},
{"type":"function","name":"riskTakenInCycle","stateMutability":"view","inputs":[{"type":"address"},{"type":"uint256"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"userCompoundOrders","stateMutability":"view","inputs":[{"type":"address"},{"type":"uint256"}],"outputs":[{"type":"address"}]},
{"type":"function","name":"userInvestments","stateMutability":"view","inputs":[{"type":"address"},{"type":"uint256"}],"outputs":[
  {"name":"tokenAddress","type":"address"},
  {"name":"cycleNumber","type":"uint256"},
  {"name":"stake","type":"uint256"},
  {"name":"tokenAmount","type":"uint256"},
  {"name":"buyPrice","type":"uint256"},
  {"name":"sellPrice","type":"uint256"},
  {"name":"buyTime","type":"uint256"},
  {"name":"isSold","type":"bool"}]}
]`

const minimeABIJSON = `[
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"balanceOfAt","stateMutability":"view","inputs":[{"type":"address"},{"type":"uint256"}],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]}
]`

const erc20ABIJSON = `[
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]}
]`

const positionTokenABIJSON = `[
{"type":"function","name":"tokenPrice","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"liquidationPrice","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"loanTokenAddress","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]}
]`

const compoundOrderABIJSON = `[
{"type":"function","name":"stake","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"cycleNumber","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"collateralAmountInDAI","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"compoundTokenAddr","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
{"type":"function","name":"isSold","stateMutability":"view","inputs":[],"outputs":[{"type":"bool"}]},
{"type":"function","name":"orderType","stateMutability":"view","inputs":[],"outputs":[{"type":"bool"}]},
{"type":"function","name":"buyTime","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"getCurrentCollateralRatioInDAI","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"getCurrentCollateralInDAI","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"getCurrentBorrowInDAI","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"getCurrentCashInDAI","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
{"type":"function","name":"getCurrentProfitInDAI","stateMutability":"view","inputs":[],"outputs":[{"name":"_amount","type":"uint256"},{"name":"_isNegative","type":"bool"}]},
{"type":"function","name":"getCurrentLiquidityInDAI","stateMutability":"view","inputs":[],"outputs":[{"name":"_amount","type":"uint256"},{"name":"_isNegative","type":"bool"}]},
{"type":"function","name":"getMarketCollateralFactor","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]}
]`

const kyberABIJSON = `[
{"type":"function","name":"getExpectedRate","stateMutability":"view","inputs":[{"type":"address"},{"type":"address"},{"type":"uint256"}],"outputs":[{"name":"expectedRate","type":"uint256"},{"name":"slippageRate","type":"uint256"}]}
]`

var (
	proxyABI         = mustParseABI(proxyABIJSON)
	fundABI          = mustParseABI(fundABIJSON)
	minimeABI        = mustParseABI(minimeABIJSON)
	erc20ABI         = mustParseABI(erc20ABIJSON)
	positionTokenABI = mustParseABI(positionTokenABIJSON)
	compoundOrderABI = mustParseABI(compoundOrderABIJSON)
	kyberABI         = mustParseABI(kyberABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: parse embedded abi: " + err.Error())
	}
	return parsed
}

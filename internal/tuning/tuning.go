package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	Session SessionTuning `yaml:"session"`
	Economy EconomyTuning `yaml:"economy"`
	Spawner SpawnerTuning `yaml:"spawner"`
	Chat    ChatTuning    `yaml:"chat"`
}

type SessionTuning struct {
	LeaveGraceMs  int `yaml:"leave_grace_ms"`
	SweepEveryMs  int `yaml:"sweep_every_ms"`
	OfflineTTLMs  int `yaml:"offline_ttl_ms"`
	TickEveryMs   int `yaml:"tick_every_ms"`
	OutQueueDepth int `yaml:"out_queue_depth"`
}

type EconomyTuning struct {
	StartingWallet float64 `yaml:"starting_wallet"`
	StartingBank   float64 `yaml:"starting_bank"`

	DepositFeeRate  float64 `yaml:"deposit_fee_rate"`
	WithdrawFeeRate float64 `yaml:"withdraw_fee_rate"`
	TransferFeeRate float64 `yaml:"transfer_fee_rate"`
	MinFee          float64 `yaml:"min_fee"`

	// Daily caps in major units; 0 disables the cap.
	DailyDepositCap  float64 `yaml:"daily_deposit_cap"`
	DailyWithdrawCap float64 `yaml:"daily_withdraw_cap"`
	DailyTransferCap float64 `yaml:"daily_transfer_cap"`

	LedgerKeep int `yaml:"ledger_keep"`
}

type SpawnerTuning struct {
	MinSeparation float64 `yaml:"min_separation"`
	RetryDelayMs  int     `yaml:"retry_delay_ms"`
}

type ChatTuning struct {
	HistoryLimit int `yaml:"history_limit"`
	RetentionHrs int `yaml:"retention_hours"`
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		Session: SessionTuning{
			LeaveGraceMs:  2000,
			SweepEveryMs:  30000,
			OfflineTTLMs:  60000,
			TickEveryMs:   250,
			OutQueueDepth: 32,
		},
		Economy: EconomyTuning{
			StartingWallet:   500,
			StartingBank:     0,
			DepositFeeRate:   0.01,
			WithdrawFeeRate:  0.01,
			TransferFeeRate:  0.01,
			MinFee:           1,
			DailyDepositCap:  5000,
			DailyWithdrawCap: 5000,
			DailyTransferCap: 2500,
			LedgerKeep:       100,
		},
		Spawner: SpawnerTuning{
			MinSeparation: 10,
			RetryDelayMs:  5000,
		},
		Chat: ChatTuning{
			HistoryLimit: 50,
			RetentionHrs: 72,
		},
	}
}

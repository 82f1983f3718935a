package idgen

import (
	"fmt"
	"time"

	"github.com/ceyewan/leaseflake/xerrors"
)

const (
	// TimestampBits 时间戳位宽，最高位符号位恒为 0
	TimestampBits = 41

	// NodeBits worker 号与序列号共享的低位宽度
	NodeBits = 22

	// MaxWorkerBits worker 号最大位宽
	MaxWorkerBits = NodeBits

	// DefaultWorkerBits 默认 worker 号位宽，序列号占 12 bit
	DefaultWorkerBits = 10
)

// Layout 描述 ID 的位布局
//
//	| 1 bit 0 | 41 bit 毫秒时间戳 | WorkerBits worker 号 | 22-WorkerBits 序列号 |
//
// 时间戳相对 EpochMs。
type Layout struct {
	WorkerBits int
	EpochMs    int64
}

// NewLayout 创建位布局，workerBits 需在 [0, 22]
func NewLayout(workerBits int, epochMs int64) (Layout, error) {
	l := Layout{WorkerBits: workerBits, EpochMs: epochMs}
	if err := l.validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

func (l Layout) validate() error {
	if l.WorkerBits < 0 || l.WorkerBits > MaxWorkerBits {
		return xerrors.Wrapf(xerrors.WithCode(ErrInvalidConfig, "worker_bits_out_of_range"),
			"worker_bits must be in [0, %d], got %d", MaxWorkerBits, l.WorkerBits)
	}
	if l.EpochMs < 0 {
		return xerrors.Wrapf(xerrors.WithCode(ErrInvalidConfig, "epoch_negative"), "epoch_ms must be >= 0, got %d", l.EpochMs)
	}
	return nil
}

// SequenceBits 序列号位宽
func (l Layout) SequenceBits() int { return NodeBits - l.WorkerBits }

// WorkerSpace worker 号取值个数
func (l Layout) WorkerSpace() int64 { return int64(1) << l.WorkerBits }

// SequenceSpace 每毫秒序列号取值个数
func (l Layout) SequenceSpace() int64 { return int64(1) << l.SequenceBits() }

// Pack 把相对时间戳、worker 号和序列号拼成 ID，超出位宽的部分被截断
func (l Layout) Pack(timestamp, worker, sequence int64) int64 {
	seqBits := l.SequenceBits()
	return timestamp<<NodeBits |
		(worker&(l.WorkerSpace()-1))<<seqBits |
		sequence&(l.SequenceSpace()-1)
}

// Parts ID 拆解结果
type Parts struct {
	// Timestamp 相对 epoch 的毫秒数
	Timestamp int64 `json:"timestamp"`
	Worker    int64 `json:"worker"`
	Sequence  int64 `json:"sequence"`
}

// Decode 拆解 ID
func (l Layout) Decode(id int64) Parts {
	seqBits := l.SequenceBits()
	return Parts{
		Timestamp: id >> NodeBits,
		Worker:    (id >> seqBits) & (l.WorkerSpace() - 1),
		Sequence:  id & (l.SequenceSpace() - 1),
	}
}

// Time 返回 ID 对应的墙钟时间
func (l Layout) Time(p Parts) time.Time {
	return time.UnixMilli(l.EpochMs + p.Timestamp)
}

// Decode 按 Unix epoch 拆解 ID
func Decode(id int64, workerBits int) (Parts, error) {
	l, err := NewLayout(workerBits, 0)
	if err != nil {
		return Parts{}, err
	}
	if id < 0 {
		return Parts{}, xerrors.Wrapf(xerrors.WithCode(xerrors.ErrInvalidInput, "id_negative"), "id %d", id)
	}
	return l.Decode(id), nil
}

func (p Parts) String() string {
	return fmt.Sprintf("timestamp=%d worker=%d sequence=%d", p.Timestamp, p.Worker, p.Sequence)
}

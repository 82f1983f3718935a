package idgen

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/lease"
	"github.com/ceyewan/leaseflake/xerrors"
)

// DefaultNamespace 启动时创建、不可移除的命名空间
const DefaultNamespace = "default"

type entry struct {
	gen *Generator
	mgr *lease.Manager
}

// Registry 命名空间到 (Generator, lease.Manager) 的映射
//
// 读路径只持有读锁；创建命名空间由 createMu 串行化，存储调用期间不阻塞读。
type Registry struct {
	store    lease.Store
	cfg      Config
	leaseCfg lease.Config
	opts     *options
	genOpts  []Option
	logger   clog.Logger

	createMu sync.Mutex

	mu      sync.RWMutex
	entries map[string]*entry
	def     *entry
	closed  bool
}

// NewRegistry 创建 Registry 并立即注册默认命名空间与 cfg.Namespaces
//
// 默认命名空间租号失败时使用未租用的随机号，不返回错误。
func NewRegistry(ctx context.Context, store lease.Store, cfg *Config, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, lease.ErrStoreNil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if _, err := cfg.layout(); err != nil {
		return nil, err
	}

	o := applyOptions(opts...)
	leaseCfg := lease.DefaultConfig()
	if o.leaseCfg != nil {
		c := *o.leaseCfg
		leaseCfg = &c
	}
	leaseCfg.WorkerBits = cfg.WorkerBits

	r := &Registry{
		store:    store,
		cfg:      *cfg,
		leaseCfg: *leaseCfg,
		opts:     o,
		genOpts:  opts,
		logger:   o.logger,
		entries:  make(map[string]*entry),
	}

	def, err := r.create(ctx, DefaultNamespace)
	if err != nil {
		return nil, err
	}
	r.def = def
	r.entries[DefaultNamespace] = def

	for _, ns := range cfg.Namespaces {
		if err := r.Register(ctx, ns); err != nil {
			r.Close()
			return nil, xerrors.Wrapf(err, "register namespace %q", ns)
		}
	}
	return r, nil
}

// create 为命名空间创建租约管理器并租号，租号失败时退回未租用的随机号
func (r *Registry) create(ctx context.Context, namespace string) (*entry, error) {
	leaseOpts := append([]lease.Option{
		lease.WithLogger(r.opts.logger),
		lease.WithMeter(r.opts.meter),
	}, r.opts.leaseOpts...)

	mgr, err := lease.NewManager(namespace, r.store, &r.leaseCfg, leaseOpts...)
	if err != nil {
		return nil, err
	}

	genOpts := slices.Clone(r.genOpts)
	worker, ok := mgr.Register(ctx)
	if !ok {
		worker = r.opts.randInt(r.leaseCfg.WorkerSpace())
		genOpts = append(genOpts, withUnleased())
		r.logger.ErrorContext(ctx, "worker number lease failed, using unleased random number",
			clog.String("namespace", namespace),
			clog.Int64("worker", worker))
	}

	gen, err := NewGenerator(namespace, mgr, worker, &r.cfg, genOpts...)
	if err != nil {
		mgr.Stop()
		return nil, err
	}

	r.logger.InfoContext(ctx, "namespace registered",
		clog.String("namespace", namespace),
		clog.Int64("worker", worker),
		clog.Bool("leased", ok))
	return &entry{gen: gen, mgr: mgr}, nil
}

// Register 注册命名空间，已存在时直接返回
func (r *Registry) Register(ctx context.Context, namespace string) error {
	if namespace == "" {
		return ErrNamespaceEmpty
	}
	if _, ok := r.Lookup(namespace); ok {
		return nil
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	r.mu.RLock()
	_, exists := r.entries[namespace]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRegistryClosed
	}
	if exists {
		return nil
	}

	e, err := r.create(ctx, namespace)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		e.gen.Close()
		return ErrRegistryClosed
	}
	r.entries[namespace] = e
	return nil
}

// GetID 从默认命名空间生成 ID
func (r *Registry) GetID() int64 {
	return r.def.gen.Next()
}

// GetIDFor 从指定命名空间生成 ID，未注册时使用默认命名空间
func (r *Registry) GetIDFor(namespace string) int64 {
	return r.GetIDForContext(context.Background(), namespace)
}

// GetIDForContext 同 GetIDFor，ctx 作用于时钟回拨时的等待与换号
func (r *Registry) GetIDForContext(ctx context.Context, namespace string) int64 {
	gen, ok := r.Lookup(namespace)
	if !ok {
		gen = r.def.gen
	}
	return gen.NextContext(ctx)
}

// Lookup 返回命名空间的生成器
func (r *Registry) Lookup(namespace string) (*Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[namespace]
	if !ok {
		return nil, false
	}
	return e.gen, true
}

// Namespaces 返回已注册的命名空间，按字典序
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for ns := range r.entries {
		names = append(names, ns)
	}
	slices.Sort(names)
	return names
}

// WorkerInfo 命名空间当前使用的 worker 号
type WorkerInfo struct {
	Namespace string `json:"namespace"`
	Worker    int64  `json:"worker"`
	Leased    bool   `json:"leased"`
	Key       string `json:"key"`
}

// Workers 返回所有命名空间的 worker 号，按命名空间排序
func (r *Registry) Workers() []WorkerInfo {
	r.mu.RLock()
	infos := make([]WorkerInfo, 0, len(r.entries))
	for ns, e := range r.entries {
		worker := e.gen.WorkerNumber()
		infos = append(infos, WorkerInfo{
			Namespace: ns,
			Worker:    worker,
			Leased:    e.gen.Leased(),
			Key:       e.mgr.Key(worker),
		})
	}
	r.mu.RUnlock()

	slices.SortFunc(infos, func(a, b WorkerInfo) int {
		return strings.Compare(a.Namespace, b.Namespace)
	})
	return infos
}

// Remove 移除命名空间并停止其租约续期，租约 key 保留到过期
func (r *Registry) Remove(namespace string) (bool, error) {
	if namespace == DefaultNamespace {
		return false, xerrors.Wrapf(ErrDefaultNamespace, "cannot remove %q", namespace)
	}

	r.mu.Lock()
	e, ok := r.entries[namespace]
	if ok {
		delete(r.entries, namespace)
	}
	r.mu.Unlock()
	if !ok {
		return false, nil
	}

	e.gen.Close()
	r.logger.Info("namespace removed", clog.String("namespace", namespace))
	return true, nil
}

// Close 停止所有命名空间的续期，可重复调用
//
// 关闭后已注册的生成器仍可生成 ID，但不能再注册新的命名空间。
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.gen.Close()
	}
	r.logger.Info("registry closed", clog.Int("namespaces", len(entries)))
}

package lease

import (
	"context"
	"math"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/leaseflake/xerrors"
)

// EtcdStore 基于 etcd 的租约存储
//
// 每个 key 绑定一个独立的 etcd lease，Expire 时换绑到新 lease 并撤销旧 lease。
type EtcdStore struct {
	client *clientv3.Client
}

// NewEtcdStore 创建 etcd 租约存储
func NewEtcdStore(client *clientv3.Client) *EtcdStore {
	return &EtcdStore{client: client}
}

// ttlSeconds etcd lease 以秒为单位，向上取整且至少 1 秒
func ttlSeconds(ttl time.Duration) int64 {
	secs := int64(math.Ceil(ttl.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (s *EtcdStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	grant, err := s.client.Grant(ctx, ttlSeconds(ttl))
	if err != nil {
		return false, xerrors.Wrapf(xerrors.Combine(ErrStore, err), "etcd grant for %s", key)
	}

	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, value, clientv3.WithLease(grant.ID))).
		Commit()
	if err != nil {
		s.revoke(grant.ID)
		return false, xerrors.Wrapf(xerrors.Combine(ErrStore, err), "etcd txn put %s", key)
	}
	if !resp.Succeeded {
		s.revoke(grant.ID)
		return false, nil
	}
	return true, nil
}

func (s *EtcdStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	grant, err := s.client.Grant(ctx, ttlSeconds(ttl))
	if err != nil {
		return false, xerrors.Wrapf(xerrors.Combine(ErrStore, err), "etcd grant for %s", key)
	}

	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.Version(key), ">", 0)).
		Then(
			clientv3.OpGet(key),
			clientv3.OpPut(key, "", clientv3.WithLease(grant.ID), clientv3.WithIgnoreValue()),
		).
		Commit()
	if err != nil {
		s.revoke(grant.ID)
		return false, xerrors.Wrapf(xerrors.Combine(ErrStore, err), "etcd txn expire %s", key)
	}
	if !resp.Succeeded {
		s.revoke(grant.ID)
		return false, nil
	}

	// 旧 lease 上已没有这个 key，撤销它不会影响新绑定
	if kvs := resp.Responses[0].GetResponseRange().GetKvs(); len(kvs) > 0 {
		if old := clientv3.LeaseID(kvs[0].Lease); old != clientv3.NoLease && old != grant.ID {
			s.revoke(old)
		}
	}
	return true, nil
}

func (s *EtcdStore) Delete(ctx context.Context, key string) (bool, error) {
	resp, err := s.client.Delete(ctx, key)
	if err != nil {
		return false, xerrors.Wrapf(xerrors.Combine(ErrStore, err), "etcd delete %s", key)
	}
	return resp.Deleted > 0, nil
}

// revoke 尽力撤销 lease，失败时等其自然过期
func (s *EtcdStore) revoke(id clientv3.LeaseID) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, _ = s.client.Revoke(ctx, id)
}

package shared

// Entity 实体：通过 ID 判断相等性
type Entity interface {
	ID() string
}

// Versioned 带乐观锁版本号的聚合根（Course、Result）。
// 仓储以 Version() 作为写条件，写成功后调用 IncrementVersionForSave。
type Versioned interface {
	Entity

	Version() int

	IncrementVersionForSave()
}

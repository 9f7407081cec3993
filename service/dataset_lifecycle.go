package service

import (
	"fmt"
	"sort"

	entity2 "mlops_webapp/entity"
)

// DatasetOperation 数据集生命周期操作
type DatasetOperation string

const (
	OpAutoAnnotate DatasetOperation = "auto_annotate"
	OpValidate     DatasetOperation = "validate"
	OpAugment      DatasetOperation = "augment"
)

// TransitionRule 一条合法迁移：操作 + 允许的起始状态 + 目标状态。
// Reentrant 表示"已经在目标状态时再次执行"视为成功而不是非法迁移。
type TransitionRule struct {
	From      []entity2.DatasetStatus
	To        entity2.DatasetStatus
	Reentrant bool
}

// transitionTable 是状态机唯一的事实来源；服务端校验和
// 前端按钮可用性都从这里推导，不允许散落的 status 判断。
var transitionTable = map[DatasetOperation]TransitionRule{
	OpAutoAnnotate: {
		From: []entity2.DatasetStatus{entity2.DatasetStatusRaw},
		To:   entity2.DatasetStatusAutoAnnotated,
	},
	OpValidate: {
		From: []entity2.DatasetStatus{entity2.DatasetStatusAutoAnnotated},
		To:   entity2.DatasetStatusValidated,
	},
	OpAugment: {
		From:      []entity2.DatasetStatus{entity2.DatasetStatusValidated, entity2.DatasetStatusAugmented},
		To:        entity2.DatasetStatusAugmented,
		Reentrant: true,
	},
}

// CanTransition 判定 from 状态下执行 op 是否合法，合法时返回目标状态。
func CanTransition(from entity2.DatasetStatus, op DatasetOperation) (entity2.DatasetStatus, error) {
	rule, ok := transitionTable[op]
	if !ok {
		return "", fmt.Errorf("%w: unknown operation %q", ErrValidation, op)
	}
	for _, s := range rule.From {
		if s == from {
			return rule.To, nil
		}
	}
	return "", fmt.Errorf("%w: operation %q not allowed from status %q", ErrInvalidTransition, op, from)
}

// NextActions 返回某状态下可执行的操作集合，字典序稳定输出。
func NextActions(status entity2.DatasetStatus) []DatasetOperation {
	var ops []DatasetOperation
	for op, rule := range transitionTable {
		for _, s := range rule.From {
			if s == status {
				ops = append(ops, op)
				break
			}
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

func transitionRule(op DatasetOperation) TransitionRule {
	return transitionTable[op]
}

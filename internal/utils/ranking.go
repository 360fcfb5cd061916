package utils

import (
	"math"
)

// HotnessDecay 每 45000 秒（12.5 小时）的时间差相当于票数多一个数量级
const HotnessDecay = 45000.0

// Hotness 评论热度：log10(max(票数, 1)) + 发布时间 / 45000
// voteCount 取净票数（赞 - 踩），createdAt 为 Unix 秒
func Hotness(voteCount int, createdAt int64) float64 {
	order := math.Log10(float64(max(voteCount, 1)))
	return order + float64(createdAt)/HotnessDecay
}

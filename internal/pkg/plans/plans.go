// Package plans holds the static subscription catalog. Plans are immutable
// at runtime; users carry a copy of the limit on their subscription row.
package plans

const (
	Free       = "free"
	Premium    = "premium"
	Enterprise = "enterprise"
	Unlimited  = "unlimited"
)

type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Limit    int      `json:"limit"`
	Price    int      `json:"price"`
	Currency string   `json:"currency"`
	Features []string `json:"features"`
}

var catalog = []Plan{
	{
		ID:       Free,
		Name:     "無料プラン",
		Limit:    10,
		Price:    0,
		Currency: "jpy",
		Features: []string{"月10件まで", "基本的な解析機能", "CSV/Excelエクスポート"},
	},
	{
		ID:       Premium,
		Name:     "プレミアムプラン",
		Limit:    100,
		Price:    980,
		Currency: "jpy",
		Features: []string{"月100件まで", "高精度AI解析", "PDF対応", "LINE連携", "優先サポート"},
	},
	{
		ID:       Enterprise,
		Name:     "エンタープライズプラン",
		Limit:    1000,
		Price:    4980,
		Currency: "jpy",
		Features: []string{"月1000件まで", "全機能利用可能", "API連携", "専任サポート", "カスタマイズ対応"},
	},
	{
		ID:       Unlimited,
		Name:     "無制限プラン（管理者用）",
		Limit:    99999,
		Price:    0,
		Currency: "jpy",
		Features: []string{"全機能無制限"},
	},
}

// ByID looks a plan up; ok is false for unknown ids.
func ByID(id string) (Plan, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Default returns the plan new registrations start on.
func Default() Plan {
	p, _ := ByID(Free)
	return p
}

// Public returns the catalog shown to users. The admin-only unlimited plan
// is hidden.
func Public() []Plan {
	out := make([]Plan, 0, len(catalog)-1)
	for _, p := range catalog {
		if p.ID == Unlimited {
			continue
		}
		out = append(out, p)
	}
	return out
}

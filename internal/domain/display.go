package domain

// DisplayNamer rewrites grouping names for presentation. It never affects aggregation.
type DisplayNamer interface {
	DisplayName(name string) string
}

// NameTable is a DisplayNamer backed by a fixed lookup. Names without an entry
// pass through unchanged.
type NameTable map[string]string

// DisplayName returns the table entry for name, or name when there is none.
func (t NameTable) DisplayName(name string) string {
	if display, ok := t[name]; ok {
		return display
	}
	return name
}

type identityNamer struct{}

func (identityNamer) DisplayName(name string) string { return name }

// IdentityNamer leaves every name as is.
var IdentityNamer DisplayNamer = identityNamer{}

// ChineseNames maps Chinese provinces (and the country itself) to Chinese display names.
var ChineseNames = NameTable{
	"Anhui": "安徽", "Beijing": "北京", "Chongqing": "重庆", "Fujian": "福建",
	"Gansu": "甘肃", "Guangdong": "广东", "Guangxi": "广西", "Guizhou": "贵州",
	"Hainan": "海南", "Hebei": "河北", "Heilongjiang": "黑龙江", "Henan": "河南",
	"Hubei": "湖北", "Hunan": "湖南", "Inner Mongolia": "内蒙古", "Jiangsu": "江苏",
	"Jiangxi": "江西", "Jilin": "吉林", "Liaoning": "辽宁", "Ningxia": "宁夏",
	"Qinghai": "青海", "Shaanxi": "陕西", "Shandong": "山东", "Shanghai": "上海",
	"Shanxi": "山西", "Sichuan": "四川", "Tianjin": "天津", "Tibet": "西藏",
	"Xinjiang": "新疆", "Yunnan": "云南", "Zhejiang": "浙江", "Hong Kong": "香港",
	"Macau": "澳门", "Taiwan": "台湾", "China": "中国",
}

// DisplayNamerFor picks the namer used when country is selected.
func DisplayNamerFor(sel Selection) DisplayNamer {
	if sel.Country() == "China" {
		return ChineseNames
	}
	return IdentityNamer
}

// Localize returns a copy of snap with entry names passed through namer.
func Localize(snap LatestSnapshot, namer DisplayNamer) LatestSnapshot {
	if namer == nil {
		return snap
	}
	out := snap
	out.Entries = make([]LatestEntry, len(snap.Entries))
	for i, e := range snap.Entries {
		e.Name = namer.DisplayName(e.Name)
		out.Entries[i] = e
	}
	return out
}

// Package audio 封装音频稿件的投稿流程: 分类枚举、歌曲元数据、
// 分片上传与提交, 以及贯穿各阶段的生命周期事件
package audio

// AudioType 音频类型
type AudioType int

const (
	AudioTypeSong    AudioType = 0 // 歌曲
	AudioTypeProgram AudioType = 1 // 有声节目
)

// String 中文标签
func (t AudioType) String() string {
	switch t {
	case AudioTypeSong:
		return "歌曲"
	case AudioTypeProgram:
		return "有声节目"
	}
	return "未知"
}

// Valid 是否为合法取值
func (t AudioType) Valid() bool {
	return t == AudioTypeSong || t == AudioTypeProgram
}

// ParseAudioType 按数值解析
func ParseAudioType(v int) (AudioType, bool) {
	t := AudioType(v)
	return t, t.Valid()
}

// ContentType 内容类型
type ContentType int

const (
	ContentMusic   ContentType = 1 // 音乐
	ContentProgram ContentType = 2 // 有声节目
)

// String 中文标签
func (t ContentType) String() string {
	switch t {
	case ContentMusic:
		return "音乐"
	case ContentProgram:
		return "有声节目"
	}
	return "未知"
}

// Valid 是否为合法取值
func (t ContentType) Valid() bool {
	return t == ContentMusic || t == ContentProgram
}

// ParseContentType 按数值解析
func ParseContentType(v int) (ContentType, bool) {
	t := ContentType(v)
	return t, t.Valid()
}

// CreationType 声音类型
type CreationType int

const (
	CreationOriginal CreationType = 1 // 原创
	CreationCover    CreationType = 2 // 翻唱/翻奏
	CreationRemix    CreationType = 3 // 改编/remix
)

// String 中文标签
func (t CreationType) String() string {
	switch t {
	case CreationOriginal:
		return "原创"
	case CreationCover:
		return "翻唱/翻奏"
	case CreationRemix:
		return "改编/remix"
	}
	return "未知"
}

// Valid 是否为合法取值
func (t CreationType) Valid() bool {
	return t >= CreationOriginal && t <= CreationRemix
}

// ParseCreationType 按数值解析
func ParseCreationType(v int) (CreationType, bool) {
	t := CreationType(v)
	return t, t.Valid()
}

// Language 语种
type Language int

const (
	LangChinese   Language = 1 // 华语
	LangJapanese  Language = 2 // 日语
	LangEnglish   Language = 3 // 英语
	LangKorean    Language = 4 // 韩语
	LangCantonese Language = 5 // 粤语
	LangOther     Language = 6 // 其他
)

// String 中文标签
func (l Language) String() string {
	switch l {
	case LangChinese:
		return "华语"
	case LangJapanese:
		return "日语"
	case LangEnglish:
		return "英语"
	case LangKorean:
		return "韩语"
	case LangCantonese:
		return "粤语"
	case LangOther:
		return "其他"
	}
	return "未知"
}

// Valid 是否为合法取值
func (l Language) Valid() bool {
	return l >= LangChinese && l <= LangOther
}

// ParseLanguage 按数值解析
func ParseLanguage(v int) (Language, bool) {
	l := Language(v)
	return l, l.Valid()
}

// SongType 歌曲类型
type SongType int

const (
	SongVocal        SongType = 1 // 人声演唱
	SongVocaloid     SongType = 2 // VOCALOID歌手
	SongHumanVoice   SongType = 3 // 人力鬼畜
	SongInstrumental SongType = 4 // 纯音乐/演奏
)

// String 中文标签
func (t SongType) String() string {
	switch t {
	case SongVocal:
		return "人声演唱"
	case SongVocaloid:
		return "VOCALOID歌手"
	case SongHumanVoice:
		return "人力鬼畜"
	case SongInstrumental:
		return "纯音乐/演奏"
	}
	return "未知"
}

// Valid 是否为合法取值
func (t SongType) Valid() bool {
	return t >= SongVocal && t <= SongInstrumental
}

// ParseSongType 按数值解析
func ParseSongType(v int) (SongType, bool) {
	t := SongType(v)
	return t, t.Valid()
}

// Style 风格
type Style int

const (
	StylePop        Style = 1 // 流行
	StyleRock       Style = 2 // 摇滚
	StyleElectronic Style = 3 // 电子音乐
	StyleFolk       Style = 4 // 民谣
	StyleRap        Style = 5 // 说唱
	StyleLight      Style = 6 // 轻音乐
	StyleJazz       Style = 7 // 爵士
	StyleClassical  Style = 8 // 古典
	StyleOther      Style = 9 // 其他
)

// String 中文标签
func (s Style) String() string {
	switch s {
	case StylePop:
		return "流行"
	case StyleRock:
		return "摇滚"
	case StyleElectronic:
		return "电子音乐"
	case StyleFolk:
		return "民谣"
	case StyleRap:
		return "说唱"
	case StyleLight:
		return "轻音乐"
	case StyleJazz:
		return "爵士"
	case StyleClassical:
		return "古典"
	case StyleOther:
		return "其他"
	}
	return "未知"
}

// Valid 是否为合法取值
func (s Style) Valid() bool {
	return s >= StylePop && s <= StyleOther
}

// ParseStyle 按数值解析
func ParseStyle(v int) (Style, bool) {
	s := Style(v)
	return s, s.Valid()
}

// Theme 主题来源
type Theme int

const (
	ThemeAnimation Theme = 1 // 动画
	ThemeGame      Theme = 2 // 游戏
	ThemeFilm      Theme = 3 // 影视
	ThemeNet       Theme = 4 // 网络歌曲
	ThemeDoujin    Theme = 5 // 同人
	ThemeIdol      Theme = 6 // 偶像
	ThemeRadio     Theme = 7 // 广播剧
	ThemeOther     Theme = 8 // 其他
)

// String 中文标签
func (t Theme) String() string {
	switch t {
	case ThemeAnimation:
		return "动画"
	case ThemeGame:
		return "游戏"
	case ThemeFilm:
		return "影视"
	case ThemeNet:
		return "网络歌曲"
	case ThemeDoujin:
		return "同人"
	case ThemeIdol:
		return "偶像"
	case ThemeRadio:
		return "广播剧"
	case ThemeOther:
		return "其他"
	}
	return "未知"
}

// Valid 是否为合法取值
func (t Theme) Valid() bool {
	return t >= ThemeAnimation && t <= ThemeOther
}

// ParseTheme 按数值解析
func ParseTheme(v int) (Theme, bool) {
	t := Theme(v)
	return t, t.Valid()
}

package llm

import (
	"fmt"

	"github.com/ternarybob/sitescreen/internal/common"
)

// textGenrePrompt lists the eleven genres with NG/OK examples. The page
// context is inserted where indicated by buildTextPrompt.
const textGenrePrompt = "以下はあるウェブサイトの本文と画像に関する情報です。下記のジャンル定義に基づいて、どのカテゴリに該当するかを判断してください。\n" +
	"複数該当しても構いません。\n" +
	"該当なしの場合は「[ジャンル]: 要確認」と記載してください。\n\n" +
	"【ジャンル定義とNG/OK例】\n" +
	"1. アダルト：R18指定、性的な描写、肌の露出が多い、年齢制限のあるページ\n" +
	"   NG例: ヌード画像、性行為描写、年齢確認ページあり\n" +
	"   OK例: 健康や医療目的の性教育ページ\n\n" +
	"2. 悪質CGM：ユーザー投稿型サイトで不適切なコメントや悪質投稿がされやすいもの\n" +
	"   NG例: 2ちゃんねる、爆サイ、出会い系掲示板\n" +
	"   OK例: 適切にモデレーションされている口コミサイト\n\n" +
	"3. 著作権侵害：著作物（漫画・アニメ・映画・音楽など）を無断転載しているサイト\n" +
	"   NG例: 漫画のスクショ掲載、タレントの画像多数転載、過度なネタバレ\n" +
	"   OK例: 表紙画像のみ、感想のみ記載したブログ\n\n" +
	"4. ポイント：ポイント付与や交換が主目的のサイト、またはその紹介\n" +
	"   NG例: ポイントメール、ポイント情報・交換・紹介系サイト\n" +
	"   OK例: 金融商品のレビューサイト（ポイント非重視）\n\n" +
	"5. ヘイト：個人・人種・宗教・性別などに対する誹謗中傷や差別的表現\n" +
	"   NG例: 特定集団への攻撃、差別用語の使用、職業批判、政治的煽動\n" +
	"   OK例: 批判的だが冷静な報道\n\n" +
	"6. 危険物：毒物、違法薬物、武器、爆発物、犯罪行為に関する情報\n" +
	"   NG例: 銃器の販売、危険ドラッグの紹介、ハッキング方法の具体例\n" +
	"   OK例: セキュリティ啓発、合法的な護身具の紹介\n\n" +
	"7. グロテスク：ショッキングな表現、死体、解体映像、自殺事件など\n" +
	"   NG例: 自殺現場の写真、昆虫食映像、排泄物、事故死映像\n" +
	"   OK例: 医学的なコンテンツ、芸術的な写真作品\n\n" +
	"8. ネガティブ：主にヘイトに該当しないが、愚痴・悲観・不安を煽る内容\n" +
	"   NG例: 有名人以外への誹謗、個人へのネガティブ投稿、日記形式の愚痴\n" +
	"   OK例: 一般的な不満共有、ニュースへのコメント\n\n" +
	"9. 閲覧不可：アクセス不可、403/404エラー、内容が空の場合\n" +
	"10. 認証が必要：ログインしないと閲覧できない、パスワード要求\n" +
	"11. 海外サイト：外国語で書かれている、外国IPから運営されているサイト\n\n"

const textOutputFormat = "【出力フォーマット】\n" +
	"[ジャンル]: ○○（複数あればカンマ区切り）\n" +
	"[理由]: ジャンル判定の根拠を簡潔に記載\n"

const imagePromptHeader = "以下の画像とそのOCR/ALTテキストを分析し、該当するジャンルがあれば判定してください。\n" +
	"明確に該当しない場合のみ [要確認] とし、少しでも該当の可能性があれば該当ジャンルを挙げてください。ジャンル名の後ろに補足があっても構いません。（例: アダルト（疑いあり））\n\n" +
	"【ジャンル定義】\n" +
	"- 閲覧不可：閲覧が制限されている表示\n" +
	"- 認証が必要：ログインを求めるページ\n" +
	"- アダルト：R18、性的な画像・警告表示\n" +
	"- 悪質CGM：掲示板・不適切なコメント多数\n" +
	"- 著作権侵害：動画・画像・漫画などの無断転載\n" +
	"- ポイント：報酬付き広告、ポイント交換案内\n" +
	"- ヘイト：差別表現や中傷がある\n" +
	"- 危険物：薬物・毒物・暴力的な描写\n" +
	"- グロテスク：死体・事故・自殺など\n" +
	"- ネガティブ：悲惨な内容、絶望的表現\n" +
	"- 海外サイト：英語など外国語表示のもの\n\n"

const imageOutputFormat = "【出力形式】\n" +
	"[ジャンル]: ○○ / [理由]: ○○○○"

// buildTextPrompt embeds the truncated body and image text, then the full
// image text, ahead of the output format
func buildTextPrompt(body, imageText string, bodyChars, imageChars int) string {
	pageContext := fmt.Sprintf("[本文（最大%d字）]:\n%s\n\n[画像の説明・OCR結果（最大%d字）]:\n%s",
		bodyChars, common.TruncateRunes(body, bodyChars),
		imageChars, common.TruncateRunes(imageText, imageChars))

	return textGenrePrompt +
		pageContext + "\n\n" +
		"[画像の説明・OCR結果]:\n" + imageText + "\n\n" +
		textOutputFormat
}

// buildImagePrompt adds the leading OCR/alt excerpt to the image instructions
func buildImagePrompt(ocrText string, chars int) string {
	return imagePromptHeader +
		"[OCR/ALTテキストの一部]: " + common.TruncateRunes(ocrText, chars) + "\n" +
		imageOutputFormat
}

package answer

const systemPrompt = `You are an assistant that answers user queries accurately and comprehensively based solely on the provided context.
Provide clear, accurate, and relevant responses strictly based on the retrieved information. If the information is insufficient, state clearly that no relevant information was found and avoid making assumptions or generating unverified content.`

const documentPrompt = `Based on the following information from the PDF document, provide a clear and comprehensive answer to the user's query: "%s"

PDF Information:
%s

Please provide a well-structured response based on the PDF content. Make sure to be specific and accurate.`

const webPrompt = `The user asked: "%s"

The information was not found in the PDF document, so I searched the web and found the following:

%s

Provide a clear and comprehensive answer based solely on these web search results. If the web results are not relevant or insufficient, state clearly: "The web search results do not contain enough information to answer the query."`
